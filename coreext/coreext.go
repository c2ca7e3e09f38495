// Package coreext imports every core extension for its side effects.
package coreext

import (
	// importing for side effects
	_ "github.com/zephyrtronium/urbi/coreext/date"
	_ "github.com/zephyrtronium/urbi/coreext/debugger"
	_ "github.com/zephyrtronium/urbi/coreext/duration"
	_ "github.com/zephyrtronium/urbi/coreext/system"
)
