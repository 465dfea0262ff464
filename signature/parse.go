package signature

import (
	"fmt"
	"strconv"
	"strings"

	"sigscan/process"
)

// Parse compiles hex-plus-wildcard text such as "48 8B ?? ?? 05" or
// "48,8b,?,05". Tokens are separated by spaces or commas; "?" and "??" are
// wildcards. A token longer than two characters is split into pairs, so
// "488B??05" is accepted as well.
func Parse(text string) (Signature, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	var elems []Element
	for _, token := range tokens {
		if token == "?" || token == "??" {
			elems = append(elems, Any())
			continue
		}

		if len(token)%2 != 0 {
			return Signature{}, fmt.Errorf("invalid token %q: odd number of digits", token)
		}

		for i := 0; i < len(token); i += 2 {
			pair := token[i : i+2]
			if pair == "??" {
				elems = append(elems, Any())
				continue
			}

			val, err := strconv.ParseUint(pair, 16, 8)
			if err != nil {
				return Signature{}, fmt.Errorf("invalid hex byte %q in token %q", pair, token)
			}
			elems = append(elems, Exact(byte(val)))
		}
	}

	return New(elems...)
}

// MustParse is Parse for package-level signature literals; it panics on error
func MustParse(text string) Signature {
	sig, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("signature: Parse(%q): %v", text, err))
	}
	return sig
}

// FromMask compiles a code-style signature: pattern bytes plus a mask string
// where 'x' marks an exact byte and '?' a wildcard, e.g. ("\x48\x8B\x00", "xx?").
func FromMask(pattern []byte, mask string) (Signature, error) {
	if len(pattern) != len(mask) {
		return Signature{}, fmt.Errorf("mask length (%d) doesn't match pattern length (%d)",
			len(mask), len(pattern))
	}

	elems := make([]Element, len(pattern))
	for i := range pattern {
		switch mask[i] {
		case 'x', 'X':
			elems[i] = Exact(pattern[i])
		case '?', '.':
			elems[i] = Any()
		default:
			return Signature{}, fmt.Errorf("invalid mask character %q at position %d", mask[i], i)
		}
	}

	return New(elems...)
}

// FromAOB compiles a pattern+mask AOB. A mask byte of 0xFF is exact and 0x00
// a wildcard; partial bit masks are rejected. An empty mask means all exact.
func FromAOB(aob process.AOB) (Signature, error) {
	if len(aob.Pattern) == 0 {
		return Signature{}, process.ErrEmptySignature
	}

	mask := aob.Mask
	if len(mask) == 0 {
		mask = make([]byte, len(aob.Pattern))
		for i := range mask {
			mask[i] = 0xFF
		}
	} else if len(mask) != len(aob.Pattern) {
		return Signature{}, fmt.Errorf("mask length (%d) doesn't match pattern length (%d)",
			len(mask), len(aob.Pattern))
	}

	elems := make([]Element, len(aob.Pattern))
	for i, b := range aob.Pattern {
		switch mask[i] {
		case 0xFF:
			elems[i] = Exact(b)
		case 0x00:
			elems[i] = Any()
		default:
			return Signature{}, fmt.Errorf("unsupported partial mask 0x%02x at position %d", mask[i], i)
		}
	}

	return New(elems...)
}
