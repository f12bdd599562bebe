// Package dynamo provides the core types shared by the particle solver and
// its hosts.
//
//   - [Handle]: stable index of a particle inside an engine
//   - [Body], [Link], [Contact]: read-only views handed out by an engine
//   - [World]: the read side of an engine, consumed by metrics and renderers
//   - [Integrator]: single-particle position integrator
//   - [Config]: boundary, grid and gravity parameters for an engine
//
// # Example
//
//	eng, _ := physics.New(dynamo.DefaultConfig())
//	h, _ := eng.Spawn(600, 300, 4, color.RGBA{255, 255, 255, 255}, false)
//	_ = eng.Update(1.0 / 60)
//	for h, b := range eng.Bodies() {
//	    draw(h, b.Position, b.Radius, b.Color)
//	}
//
// # Thread Safety
//
// Engines are NOT thread-safe. Read a [World] only between Update calls.
package dynamo
