// Package process holds the types shared by the resolver, matcher and scanner
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the signature does not occur in the scanned region.
	ErrNotFound = errors.New("signature not found")

	// ErrMultipleFound is returned when the signature occurs more than once.
	// An ambiguous signature is a failure, the first hit is never returned.
	ErrMultipleFound = errors.New("signature found multiple times")

	// ErrInvalidModule is returned when the module is not loaded, cannot be
	// queried or has no usable loadable segment.
	ErrInvalidModule = errors.New("invalid module")

	// ErrInvalidName is returned for module names the platform cannot represent.
	// It wraps ErrInvalidModule.
	ErrInvalidName = fmt.Errorf("%w: invalid module name", ErrInvalidModule)

	ErrEmptySignature = errors.New("empty signature")
)

// ModuleResolver resolves the memory region of a module mapped into the
// current process. Implementations recompute the region on every call.
type ModuleResolver interface {
	// ModuleName returns the name the resolver is bound to
	ModuleName() string

	// Resolve returns the module's first loadable segment as currently mapped
	Resolve() (MemoryRegion, error)
}
