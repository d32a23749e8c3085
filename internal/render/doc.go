// Package render draws simulation frames into RGBA pixel buffers.
//
// The package depends only on the [Rasterizer] contract for drawing
// primitives. [NewGG] provides the production implementation on top of
// github.com/gogpu/gg software contexts.
//
// # Frame layout
//
// Every frame is drawn in a fixed order:
//
//  1. background fill
//  2. chamber boundary (board, antechamber, connectors)
//  3. one filled marker per particle, optionally labelled with its 1-based index
//  4. the event counter in the top-left corner, when set
//
// # Determinism
//
// [Renderer.Render] draws on a fresh [Surface] on every call, so rendering the
// same frame twice yields identical bytes.
package render
