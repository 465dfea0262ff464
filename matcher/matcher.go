// Package matcher finds a signature in a byte region and enforces that it
// occurs exactly once.
package matcher

import (
	"sigscan/process"
	"sigscan/signature"
)

// Scan returns the offset of the only occurrence of sig in region.
//
// It returns process.ErrNotFound when sig does not occur and
// process.ErrMultipleFound as soon as a second occurrence is seen, including
// occurrences that overlap the first. Bytes outside region are never read.
func Scan(region []byte, sig signature.Signature) (int, error) {
	if sig.IsEmpty() {
		return 0, process.ErrEmptySignature
	}

	result := -1
	multiple := false
	walk(region, sig, func(offset int) bool {
		if result >= 0 {
			multiple = true
			return false
		}
		result = offset
		return true
	})

	if multiple {
		return 0, process.ErrMultipleFound
	}
	if result < 0 {
		return 0, process.ErrNotFound
	}
	return result, nil
}

// FindAll returns the offsets of every occurrence of sig in region, overlapping
// occurrences included. It is meant for explaining an ambiguous signature.
func FindAll(region []byte, sig signature.Signature) ([]int, error) {
	if sig.IsEmpty() {
		return nil, process.ErrEmptySignature
	}

	var offsets []int
	walk(region, sig, func(offset int) bool {
		offsets = append(offsets, offset)
		return true
	})
	return offsets, nil
}

// walk runs a single left-to-right pass with a cursor and a match length.
// On a mismatch the cursor rewinds to one past the start of the current
// attempt; after a full match it rewinds to one past the match start, so
// overlapping occurrences are reported. yield returning false stops the walk.
func walk(region []byte, sig signature.Signature, yield func(offset int) bool) {
	n := sig.Len()
	matched := 0

	for cursor := 0; cursor < len(region); cursor++ {
		// A new attempt needs n bytes from here
		if matched == 0 && len(region)-cursor < n {
			return
		}

		if !sig.At(matched).Matches(region[cursor]) {
			cursor -= matched
			matched = 0
			continue
		}

		matched++
		if matched < n {
			continue
		}

		start := cursor - n + 1
		if !yield(start) {
			return
		}
		matched = 0
		cursor = start
	}
}
