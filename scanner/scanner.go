// Package scanner locates a signature inside a module loaded in the current
// process and returns the absolute address of its only occurrence.
package scanner

import (
	"fmt"

	"sigscan/matcher"
	"sigscan/module"
	"sigscan/process"
	"sigscan/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Scanner composes a module resolver with the matcher. It holds no state
// between calls; every Find resolves the module again.
type Scanner struct {
	resolver process.ModuleResolver
	log      *logger.Logger
	snapshot bool

	scan func([]byte, signature.Signature) (int, error)
}

// Option is a function that configures a Scanner
type Option func(*Scanner)

func WithLogger(log *logger.Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// WithSnapshot scans a copy of the region instead of live memory. A region
// that becomes unreadable then fails with process.ErrInvalidModule instead
// of faulting.
func WithSnapshot(enabled bool) Option {
	return func(s *Scanner) {
		s.snapshot = enabled
	}
}

// New returns a scanner for the named module. false means the name cannot
// identify a module; see module.ValidateName.
func New(moduleName string, options ...Option) (*Scanner, bool) {
	s := newScanner(moduleName, options)

	r, ok := module.ForModule(moduleName, module.WithLogger(s.log))
	if !ok {
		return nil, false
	}
	s.resolver = r

	return s, true
}

// NewWithResolver returns a scanner over any resolver
func NewWithResolver(resolver process.ModuleResolver, options ...Option) *Scanner {
	s := newScanner(resolver.ModuleName(), options)
	s.resolver = resolver
	return s
}

func newScanner(name string, options []Option) *Scanner {
	s := &Scanner{scan: matcher.Scan}
	for _, opt := range options {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "scanner-"+name))
	}
	return s
}

// Find resolves the module, scans its region for sig and returns the absolute
// address of the match. Errors are process.ErrInvalidModule,
// process.ErrNotFound, process.ErrMultipleFound or process.ErrEmptySignature.
func (s *Scanner) Find(sig signature.Signature) (process.ProcessMemoryAddress, error) {
	if sig.IsEmpty() {
		return 0, process.ErrEmptySignature
	}

	region, data, err := s.read()
	if err != nil {
		return 0, err
	}

	s.log.Debugln("Scanning", region.String(), "for", sig.String())

	offset, err := s.scan(data, sig)
	if err != nil {
		s.log.Debugln("Scan failed:", err)
		return 0, err
	}

	addr := region.Base + process.ProcessMemoryAddress(offset)
	s.log.Infoln("Found signature in", s.resolver.ModuleName(), "at", addr.ToString())
	return addr, nil
}

// FindAll returns the address of every occurrence of sig. It never fails
// with process.ErrMultipleFound and is meant for diagnosing ambiguous
// signatures.
func (s *Scanner) FindAll(sig signature.Signature) ([]process.ProcessMemoryAddress, error) {
	if sig.IsEmpty() {
		return nil, process.ErrEmptySignature
	}

	region, data, err := s.read()
	if err != nil {
		return nil, err
	}

	offsets, err := matcher.FindAll(data, sig)
	if err != nil {
		return nil, err
	}

	results := make([]process.ProcessMemoryAddress, len(offsets))
	for i, offset := range offsets {
		results[i] = region.Base + process.ProcessMemoryAddress(offset)
	}

	s.log.Debugln("Found", len(results), "matches in", s.resolver.ModuleName())
	return results, nil
}

// read resolves the module and returns its region together with the bytes to scan
func (s *Scanner) read() (process.MemoryRegion, []byte, error) {
	region, err := s.resolver.Resolve()
	if err != nil {
		return process.MemoryRegion{}, nil, err
	}

	if !region.Valid() {
		return process.MemoryRegion{}, nil, fmt.Errorf("%w: %s resolved to degenerate region %s",
			process.ErrInvalidModule, s.resolver.ModuleName(), region.String())
	}

	readRegion := module.View
	if s.snapshot {
		readRegion = module.Snapshot
	}

	data, err := readRegion(region)
	if err != nil {
		return process.MemoryRegion{}, nil, err
	}
	return region, data, nil
}

// Find locates sig in the named module of the current process
func Find(moduleName string, sig signature.Signature) (process.ProcessMemoryAddress, error) {
	s, ok := New(moduleName)
	if !ok {
		return 0, module.ValidateName(moduleName)
	}
	return s.Find(sig)
}
