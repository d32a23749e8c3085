// Package dynamo provides the core data model for turning event-driven
// particle simulation logs into video frames.
//
// The package defines the fundamental types shared by the pipeline stages:
//
//   - [Particle]: position, velocity and radius of one particle
//   - [Timestep]: one recorded simulation instant
//   - [Stream]: pull-based, single-pass sequence of timesteps
//
// and the error taxonomy used across the module:
//
//   - [ParseError]: malformed line in a simulation log
//   - [ValidationError]: bad configuration detected before rendering
//   - [SubprocessError]: encoder write failure or nonzero exit
//
// # Example
//
//	p := steplog.NewParser(f)
//	for {
//		ts, err := p.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		...
//	}
//
// # Thread Safety
//
// Particle and Timestep values are immutable once produced and may be shared.
// Stream implementations are NOT thread-safe.
package dynamo
