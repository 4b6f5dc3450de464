// Package mechanism implements the membrane mechanisms that contribute
// current to compartments.
//
// The set of mechanisms is closed:
//
//   - hh: Hodgkin-Huxley sodium, potassium and leak channels with m, h, n
//     gates integrated by exponential Euler
//   - pas: linear leak
//   - iclamp: time-windowed current injection
//
// Shared read-only state (rate tables) lives in a [Registry] that is built
// once and passed to every instance it creates. A Registry is safe for
// concurrent use by independent simulations; mechanism instances are not.
package mechanism
