// Package signature defines byte signatures with wildcard positions and the
// parsers that compile them from their human-readable forms.
package signature

import (
	"strings"

	"sigscan/process"
)

// Element is one position of a signature: an exact byte or a wildcard.
type Element struct {
	value    byte
	wildcard bool
}

// Exact returns an element matching only b
func Exact(b byte) Element {
	return Element{value: b}
}

// Any returns an element matching every byte
func Any() Element {
	return Element{wildcard: true}
}

func (e Element) IsAny() bool {
	return e.wildcard
}

// Value returns the byte of an exact element, zero for a wildcard
func (e Element) Value() byte {
	if e.wildcard {
		return 0
	}
	return e.value
}

// Matches reports whether b satisfies the element
func (e Element) Matches(b byte) bool {
	return e.wildcard || e.value == b
}

func (e Element) String() string {
	if e.wildcard {
		return "??"
	}
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[e.value>>4], hexDigits[e.value&0x0F]})
}

// Signature is an immutable ordered sequence of elements. The zero value is
// empty and is rejected by the matcher.
type Signature struct {
	elems []Element
}

// New builds a signature from elems. At least one element is required.
func New(elems ...Element) (Signature, error) {
	if len(elems) == 0 {
		return Signature{}, process.ErrEmptySignature
	}

	owned := make([]Element, len(elems))
	copy(owned, elems)
	return Signature{elems: owned}, nil
}

func (s Signature) Len() int {
	return len(s.elems)
}

func (s Signature) IsEmpty() bool {
	return len(s.elems) == 0
}

// At returns the element at position i
func (s Signature) At(i int) Element {
	return s.elems[i]
}

// Elements returns a copy of the elements
func (s Signature) Elements() []Element {
	out := make([]Element, len(s.elems))
	copy(out, s.elems)
	return out
}

// AOB returns the pattern+mask form, mask 0xFF for exact and 0x00 for wildcard
func (s Signature) AOB() process.AOB {
	aob := process.AOB{
		Pattern: make([]byte, len(s.elems)),
		Mask:    make([]byte, len(s.elems)),
	}
	for i, e := range s.elems {
		aob.Pattern[i] = e.Value()
		if !e.wildcard {
			aob.Mask[i] = 0xFF
		}
	}
	return aob
}

// String formats the signature as space separated hex bytes, "??" for wildcards
func (s Signature) String() string {
	var sb strings.Builder
	for i, e := range s.elems {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}
