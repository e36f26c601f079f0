// Package domain contains the core entities and value objects for lifepad.
//
// This package is the innermost layer. It has no dependencies on hardware,
// radio stacks, displays or logging and contains only the cellular automaton
// and the vocabulary shared by every other package.
//
// # Entities
//
//   - [Grid]: the automaton state, a matrix of [Cell] values
//   - [Direction]: one of the four control slots (up, down, left, right)
//   - [DeviceKind]: behaviour class of a wireless controller
//   - [PeripheralTable]: the static address to kind partition
//   - [ButtonState]: one sampled snapshot of the four buttons
//
// # Invariants
//
// A dead cell never carries an owner. [Step] and every mutator on [Grid]
// preserve this; [Grid.Consistent] checks it.
package domain
