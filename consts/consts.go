// Package consts holds build-mode switches shared across the module.
package consts

const (
	// Mode_Debug gates assertions and other checks that are too costly to
	// carry in a release build of a per-frame shaping core.
	Mode_Debug = true
)
