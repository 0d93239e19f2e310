package fuzztests

import (
	"bytes"
	"testing"

	"flux/internal/parser"
)

// maxFuzzInput is the largest input the harnesses will parse. Bigger
// inputs are clamped, not rejected, so mutations of large seeds still
// exercise the parser.
const maxFuzzInput = 256 << 10

func clampFuzzInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// FuzzParseNoPanic feeds arbitrary bytes to the parser. Any outcome is
// fine as long as it is a value or an error, never a panic.
func FuzzParseNoPanic(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampFuzzInput(input)
		c, err := parser.Parse(input, parser.Options{Path: "fuzz.flx"})
		if err != nil {
			return
		}
		if c == nil {
			t.Fatalf("nil circuit without error")
		}
		// печать принятого модуля тоже не должна паниковать
		_ = c.String()
	})
}

// FuzzParseRoundTrip checks the printer against the parser: canonical
// text of an accepted circuit must reparse, and reprinting must not
// change a single byte.
func FuzzParseRoundTrip(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampFuzzInput(input)
		c, err := parser.Parse(input, parser.Options{Path: "fuzz.flx"})
		if err != nil {
			return
		}
		canonical := []byte(c.String())
		c2, err := parser.Parse(canonical, parser.Options{Path: "fuzz.flx"})
		if err != nil {
			t.Fatalf("canonical text does not reparse: %v\n%s", err, canonical)
		}
		again := []byte(c2.String())
		if !bytes.Equal(canonical, again) {
			t.Fatalf("canonical print is not a fixed point:\nfirst:\n%s\nsecond:\n%s", canonical, again)
		}
	})
}
