// Package controller holds the per-direction controller state and the grid
// effects each controller kind produces.
//
// A State is written by background connection goroutines (telemetry) and read
// by the tick loop (effects). Every field access goes through its mutex. The
// grid itself is only ever touched from the tick loop via Effects.Apply.
package controller
