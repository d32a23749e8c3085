// Package pipeline renders simulation logs into videos.
//
// A [Runner] processes each input file in a single pass:
//
//	steplog.Parser -> interp.Resampler -> render.Renderer -> encoder.Sink
//
// Files are independent. [Runner.RunAll] processes up to Runner.Jobs files
// at once and keeps going when one of them fails; the failures are joined into
// the returned error.
package pipeline
