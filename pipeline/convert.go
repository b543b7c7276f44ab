package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultConverterBinary is the pdf2htmlEX executable name.
const DefaultConverterBinary = "pdf2htmlEX"

// PDF2HTMLEX runs the pdf2htmlEX executable. Text is kept as real Unicode
// and unoptimized so each positioned block stays addressable.
type PDF2HTMLEX struct {
	Binary string
}

// Args returns the command line used to convert input.
func (c PDF2HTMLEX) Args(input, destDir, outputName string) []string {
	return []string{"--tounicode", "1", "--optimize-text", "0", "--dest-dir", destDir, input, outputName}
}

// Convert implements Converter.
func (c PDF2HTMLEX) Convert(ctx context.Context, input, destDir, outputName string) error {
	bin := c.Binary
	if bin == "" {
		bin = DefaultConverterBinary
	}
	cmd := exec.CommandContext(ctx, bin, c.Args(input, destDir, outputName)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}
