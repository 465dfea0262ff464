// Package module resolves the memory region of a module loaded in the
// current process.
//
// Names are matched as path suffixes on Linux: "libc.so.6" matches
// "/usr/lib/x86_64-linux-gnu/libc.so.6". A short or generic name can match an
// unintended module whose path happens to end the same way; the first loaded
// match wins, so pass enough of the path to be unambiguous.
package module

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sigscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ModuleInfo describes one module mapped into the current process
type ModuleInfo struct {
	Path string
	Base process.ProcessMemoryAddress
	Size process.ProcessMemorySize
}

func (mi ModuleInfo) String() string {
	return fmt.Sprintf("%s %s %s", mi.Base.ToString(), mi.Size.ToString(), mi.Path)
}

// Resolver is bound to one module name. It implements process.ModuleResolver
// and recomputes the region on every Resolve, since a module can be unloaded
// and loaded again between scans.
type Resolver struct {
	name string
	log  *logger.Logger
}

var _ process.ModuleResolver = (*Resolver)(nil)

// Option configures a Resolver
type Option func(*Resolver)

func WithLogger(log *logger.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// ForModule returns a resolver for name. It only validates the name and
// never touches memory; false means the name cannot identify a module.
func ForModule(name string, options ...Option) (*Resolver, bool) {
	if err := ValidateName(name); err != nil {
		return nil, false
	}

	r := &Resolver{name: name}
	for _, opt := range options {
		opt(r)
	}

	if r.log == nil {
		r.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "module-"+name))
	}

	return r, true
}

// ValidateName rejects names no platform loader can represent
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", process.ErrInvalidName)
	case strings.IndexByte(name, 0) >= 0:
		return fmt.Errorf("%w: %q contains a NUL byte", process.ErrInvalidName, name)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: %q is not valid UTF-8", process.ErrInvalidName, name)
	}
	return nil
}

// ModuleName returns the name the resolver is bound to
func (r *Resolver) ModuleName() string {
	return r.name
}

// Resolve returns the module's first loadable segment as currently mapped.
// Every failure wraps process.ErrInvalidModule.
func (r *Resolver) Resolve() (process.MemoryRegion, error) {
	region, err := resolve(r.name)
	if err != nil {
		r.log.Debugln("Resolve failed:", err)
		return process.MemoryRegion{}, err
	}

	r.log.Debugln("Resolved", r.name, "to", region.String())
	return region, nil
}

// Modules lists the modules currently mapped into this process
func Modules() ([]ModuleInfo, error) {
	return modules()
}
