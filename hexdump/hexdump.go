// Package hexdump renders memory around a signature match, colouring the
// matched bytes and marking the positions a wildcard accepted.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unsafe"

	"sigscan/coloransi"
	"sigscan/process/memory_map"
	"sigscan/signature"
)

// Highlight marks a signature match inside the dumped data
type Highlight struct {
	Offset    int // Offset of the match within the dumped data
	Signature signature.Signature
}

// HexDumpOptions defines options for customizing the hexdump output
type HexDumpOptions struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartAddress is printed in the offset column for the first byte
	StartAddress uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// NoColor disables ANSI escapes
	NoColor bool

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ZeroColor         coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode

	// ExactColor and WildcardColor colour matched bytes
	ExactColor       coloransi.ColorCode
	WildcardColor    coloransi.ColorCode
	HighlightBGColor coloransi.ColorCode

	Highlights []Highlight

	// MemoryMap, when set, adds a preview of the pointer-sized values on each
	// line that point into mapped memory. It must be sorted by address.
	MemoryMap []memory_map.MemoryMapItem
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() HexDumpOptions {
	return HexDumpOptions{
		BytesPerLine:      16,
		ShowASCII:         true,
		OffsetWidth:       16,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ZeroColor:         coloransi.BrightBlack,
		NonPrintableColor: coloransi.Red,
		ExactColor:        coloransi.Yellow,
		WildcardColor:     coloransi.ColorOrange,
		HighlightBGColor:  coloransi.Black,
	}
}

type byteClass int

const (
	plainByte byteClass = iota
	exactByte
	wildcardByte
)

// classify tags every byte of data with the highlight it falls in
func classify(n int, highlights []Highlight) []byteClass {
	classes := make([]byteClass, n)
	for _, h := range highlights {
		for i := 0; i < h.Signature.Len(); i++ {
			pos := h.Offset + i
			if pos < 0 || pos >= n {
				continue
			}
			if h.Signature.At(i).IsAny() {
				classes[pos] = wildcardByte
			} else {
				classes[pos] = exactByte
			}
		}
	}
	return classes
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options HexDumpOptions) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options HexDumpOptions) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	classes := classify(len(data), options.Highlights)
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], classes[offset:end], options.StartAddress+uint64(offset), options)
	}
}

func (o HexDumpOptions) paint(fg coloransi.ColorCode, s string) string {
	if o.NoColor {
		return s
	}
	return coloransi.Foreground(fg, s)
}

func (o HexDumpOptions) paintClass(class byteClass, fallback coloransi.ColorCode, s string) string {
	if o.NoColor {
		return s
	}
	switch class {
	case exactByte:
		return coloransi.Color(o.ExactColor, o.HighlightBGColor, s)
	case wildcardByte:
		return coloransi.Color(o.WildcardColor, o.HighlightBGColor, s)
	}
	return coloransi.Foreground(fallback, s)
}

// formatLine formats a single line:
//
//	00000000004010a0  48 8b 05 ?? ... | H..
func formatLine(writer io.Writer, data []byte, classes []byteClass, addr uint64, options HexDumpOptions) {
	offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", addr)
	fmt.Fprint(writer, options.paint(options.OffsetColor, offsetStr), "  ")

	hexParts := make([]string, 0, options.BytesPerLine)
	for i, b := range data {
		color := options.HexColor
		if b == 0 {
			color = options.ZeroColor
		}
		hexParts = append(hexParts, options.paintClass(classes[i], color, fmt.Sprintf("%02x", b)))
	}
	fmt.Fprint(writer, strings.Join(hexParts, " "))

	// Keep the ASCII column aligned on a short last line
	if missing := options.BytesPerLine - len(data); missing > 0 {
		fmt.Fprint(writer, strings.Repeat("   ", missing))
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		for i, b := range data {
			switch {
			case classes[i] != plainByte:
				fmt.Fprint(writer, options.paintClass(classes[i], 0, printable(b)))
			case b == 0:
				fmt.Fprint(writer, options.paint(options.ZeroColor, "."))
			case !unicode.IsPrint(rune(b)) || b >= 0x80:
				fmt.Fprint(writer, options.paint(options.NonPrintableColor, "."))
			default:
				fmt.Fprint(writer, string(rune(b)))
			}
		}
	}

	if len(options.MemoryMap) > 0 {
		for i := 0; i+pointerSize <= len(data); i += pointerSize {
			ptr := readPointer(data[i : i+pointerSize])
			if memory_map.FindItem(ptr, options.MemoryMap) != nil {
				fmt.Fprint(writer, " ", options.paint(coloransi.Yellow, fmt.Sprintf("0x%x", ptr)))
			}
		}
	}

	fmt.Fprintln(writer)
}

// pointerSize is the width of the values checked by the pointer preview
var pointerSize = int(unsafe.Sizeof(uintptr(0)))

func readPointer(b []byte) uint64 {
	if len(b) == 4 {
		return uint64(binary.NativeEndian.Uint32(b))
	}
	return binary.NativeEndian.Uint64(b)
}

func printable(b byte) string {
	if b < 0x80 && unicode.IsPrint(rune(b)) {
		return string(rune(b))
	}
	return "."
}
