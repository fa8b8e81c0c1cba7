//go:build !linux

package shim

import "fmt"

// RealFuncs only works on linux; elsewhere every resolution fails and
// hooks return ResolveError without executing anything.
type RealFuncs struct{}

// NewRealFuncs returns the production resolver.
func NewRealFuncs() Resolver { return RealFuncs{} }

// Resolve fails for every name on this platform.
func (RealFuncs) Resolve(name string) (any, error) {
	return nil, fmt.Errorf("%s: real implementations require linux", name)
}
