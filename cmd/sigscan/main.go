package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sigscan/hexdump"
	"sigscan/module"
	"sigscan/process"
	"sigscan/process/memory_map"
	"sigscan/scanner"
	"sigscan/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

func main() {
	listFlag := flag.Bool("list", false, "List modules loaded in this process")
	moduleFlag := flag.String("module", "", "Module to scan (matched as a path suffix on Linux)")
	sigFlag := flag.String("sig", "", "Signature to scan for (e.g., '48 8B ?? ?? 05')")
	patternFlag := flag.String("pattern", "", "Escaped pattern bytes (e.g., '\\x48\\x8b\\x00'), used with -mask")
	maskFlag := flag.String("mask", "", "Mask for -pattern, 'x' exact and '?' wildcard (e.g., 'xx?')")
	byteMaskFlag := flag.String("bytemask", "", "Escaped byte mask for -pattern, 0xff exact and 0x00 wildcard (e.g., '\\xff\\xff\\x00')")
	contextFlag := flag.Int("context", 16, "Bytes of context to dump around each match")
	allFlag := flag.Bool("all", false, "Report every match instead of requiring a unique one")
	snapshotFlag := flag.Bool("snapshot", false, "Scan a copy of the module instead of live memory")
	debugFlag := flag.Bool("debug", false, "Log the resolved region and annotate pointers in dumps")
	flag.Parse()

	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "sigscan"))

	if *listFlag {
		if err := listModules(); err != nil {
			fmt.Printf("Error listing modules: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *moduleFlag == "" {
		fmt.Println("Error: --module is required")
		flag.Usage()
		os.Exit(1)
	}

	sig, err := signatureFromFlags(*sigFlag, *patternFlag, *maskFlag, *byteMaskFlag)
	if err != nil {
		fmt.Printf("Error parsing signature: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	s, ok := scanner.New(*moduleFlag, scanner.WithLogger(log), scanner.WithSnapshot(*snapshotFlag))
	if !ok {
		fmt.Printf("Error: %v\n", module.ValidateName(*moduleFlag))
		os.Exit(1)
	}

	if *debugFlag {
		if r, ok := module.ForModule(*moduleFlag, module.WithLogger(log)); ok {
			if region, err := r.Resolve(); err == nil {
				log.Infoln("Module", *moduleFlag, "resolved to", region.String())
			}
		}

		aob := sig.AOB()
		log.Infoln("Pattern", escapeBytes(aob.Pattern), "bytemask", escapeBytes(aob.Mask))
	}

	fmt.Printf("Scanning %s for pattern: %s\n", *moduleFlag, sig.String())

	var matches []process.ProcessMemoryAddress
	addr, err := s.Find(sig)
	switch {
	case err == nil && !*allFlag:
		matches = []process.ProcessMemoryAddress{addr}
	case err == nil, errors.Is(err, process.ErrMultipleFound):
		if err != nil {
			fmt.Println("Signature is not unique")
		}
		matches, err = s.FindAll(sig)
		if err != nil {
			fmt.Printf("Error scanning module: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Error scanning module: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d matches:\n", len(matches))

	var memoryMap []memory_map.MemoryMapItem
	if *debugFlag {
		memoryMap, _ = memory_map.NewMemoryMap().ReadMemoryMap()
	}

	for _, match := range matches {
		fmt.Printf("Match at %s:\n", match.ToString())
		dumpContext(match, sig, *contextFlag, memoryMap)
	}

	if len(matches) > 1 {
		os.Exit(2)
	}
}

func listModules() error {
	mods, err := module.Modules()
	if err != nil {
		return err
	}
	for _, m := range mods {
		fmt.Println(m.String())
	}
	return nil
}

func signatureFromFlags(sigText, patternText, mask, byteMask string) (signature.Signature, error) {
	switch {
	case sigText != "" && patternText != "":
		return signature.Signature{}, fmt.Errorf("use either -sig or -pattern, not both")
	case sigText != "":
		return signature.Parse(sigText)
	case patternText == "":
		return signature.Signature{}, process.ErrEmptySignature
	}

	pattern, err := unescapeBytes(patternText)
	if err != nil {
		return signature.Signature{}, err
	}

	switch {
	case mask != "" && byteMask != "":
		return signature.Signature{}, fmt.Errorf("use either -mask or -bytemask, not both")
	case mask != "":
		return signature.FromMask(pattern, mask)
	case byteMask != "":
		maskBytes, err := unescapeBytes(byteMask)
		if err != nil {
			return signature.Signature{}, err
		}
		aob, err := process.NewAOB(pattern, maskBytes)
		if err != nil {
			return signature.Signature{}, err
		}
		if !aob.IsValid() {
			return signature.Signature{}, process.ErrEmptySignature
		}
		return signature.FromAOB(aob)
	}
	return signature.Signature{}, fmt.Errorf("-pattern requires -mask or -bytemask")
}

// unescapeBytes decodes Go string escapes such as "\x48\x8b"
func unescapeBytes(text string) ([]byte, error) {
	s, err := strconv.Unquote(`"` + text + `"`)
	if err != nil {
		return nil, fmt.Errorf("invalid escaped bytes %q: %w", text, err)
	}
	return []byte(s), nil
}

func escapeBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "\\x%02x", c)
	}
	return sb.String()
}

// dumpContext prints the bytes around a match, read through a copy so a
// context window that runs off the mapping fails instead of faulting
func dumpContext(match process.ProcessMemoryAddress, sig signature.Signature, context int, memoryMap []memory_map.MemoryMapItem) {
	if context < 0 {
		context = 0
	}

	before := process.ProcessMemoryAddress(context)
	if match < before {
		before = match
	}

	region := process.MemoryRegion{
		Base:   match - before,
		Length: process.ProcessMemorySize(int(before) + sig.Len() + context),
	}

	data, err := module.Snapshot(region)
	if err != nil {
		// Fall back to the match alone
		region = process.MemoryRegion{Base: match, Length: process.ProcessMemorySize(sig.Len())}
		before = 0
		if data, err = module.Snapshot(region); err != nil {
			fmt.Printf("  unable to read context: %v\n", err)
			return
		}
	}

	options := hexdump.DefaultOptions()
	options.StartAddress = uint64(region.Base)
	options.Highlights = []hexdump.Highlight{{Offset: int(before), Signature: sig}}
	options.MemoryMap = memoryMap
	fmt.Print(hexdump.Dump(data, options))
}
