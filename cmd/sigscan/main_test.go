package main

import (
	"errors"
	"testing"

	"sigscan/process"
)

func TestSignatureFromFlags(t *testing.T) {
	tests := []struct {
		name     string
		sig      string
		pattern  string
		mask     string
		byteMask string
		want     string
		wantErr  bool
	}{
		{name: "text", sig: "48 8B ?? 05", want: "48 8B ?? 05"},
		{name: "code-style mask", pattern: `\x48\x8b\x00`, mask: "xx?", want: "48 8B ??"},
		{name: "byte mask", pattern: `\x48\x8b\x00`, byteMask: `\xff\xff\x00`, want: "48 8B ??"},
		{name: "both forms", sig: "48", pattern: `\x48`, mask: "x", wantErr: true},
		{name: "both masks", pattern: `\x48`, mask: "x", byteMask: `\xff`, wantErr: true},
		{name: "no mask", pattern: `\x48`, wantErr: true},
		{name: "byte mask length", pattern: `\x48\x8b`, byteMask: `\xff`, wantErr: true},
		{name: "partial byte mask", pattern: `\x48`, byteMask: `\x0f`, wantErr: true},
		{name: "bad escape", pattern: `\xZZ`, mask: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := signatureFromFlags(tt.sig, tt.pattern, tt.mask, tt.byteMask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("signatureFromFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && sig.String() != tt.want {
				t.Errorf("signatureFromFlags() = %q, want %q", sig.String(), tt.want)
			}
		})
	}
}

func TestSignatureFromFlags_Empty(t *testing.T) {
	if _, err := signatureFromFlags("", "", "", ""); !errors.Is(err, process.ErrEmptySignature) {
		t.Fatalf("signatureFromFlags() error = %v, want ErrEmptySignature", err)
	}
}

func TestEscapeBytes(t *testing.T) {
	if got, want := escapeBytes([]byte{0x48, 0xff, 0x00}), `\x48\xff\x00`; got != want {
		t.Errorf("escapeBytes() = %q, want %q", got, want)
	}
}
