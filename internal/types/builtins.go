package types

import "github.com/funvibe/shale/internal/config"

// Instance types of the built-in value classes.
var (
	Object = Raw{Name: config.ObjectClassName}
	Int    = Raw{Name: config.IntClassName}
	Float  = Raw{Name: config.FloatClassName}
	Bool   = Raw{Name: config.BoolClassName}
	Void   = Raw{Name: config.VoidClassName}
)

// IsVoid reports whether t is the Void instance type.
func IsVoid(t Term) bool { return Equal(t, Void) }
