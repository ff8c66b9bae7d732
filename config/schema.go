package config

import _ "embed"

// manifestSchema is the embedded CUE schema manifests are unified against.
// It carries the defaults for the stock ARM926EJ-S target, so an empty
// toolchain section in a user manifest resolves to the standard cross
// toolchain.
//
//go:embed schema.cue
var manifestSchema string
