package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// PageContainer is the line that ends the pdf2htmlEX document header.
const PageContainer = `<div id="page-container">`

// DefaultFontScale shrinks header font sizes so translated text, usually
// longer than the source, still fits its positioned box.
const DefaultFontScale = 0.7

var fontSizeRe = regexp.MustCompile(`font-size\s*:\s*([\d.]+)([a-z%]+)`)

// DocumentTranslator translates the body lines of a document.
type DocumentTranslator interface {
	TranslateDocument(ctx context.Context, lines []string, source, target string) []string
}

// ShrinkFont rewrites every `font-size: N<unit>` declaration of a CSS rule
// into `font-size: calc(N<unit> * scale)`.
func ShrinkFont(rule string, scale float64) string {
	factor := strconv.FormatFloat(scale, 'f', -1, 64)
	return fontSizeRe.ReplaceAllStringFunc(rule, func(decl string) string {
		m := fontSizeRe.FindStringSubmatch(decl)
		return "font-size: calc(" + m[1] + m[2] + " * " + factor + ")"
	})
}

// Assemble copies the document header from r to w, shrinking the `.fs`
// font classes, up to and including the page container line. Every line
// after it goes through translator and is written in input order. A
// document without a page container is copied whole.
func Assemble(ctx context.Context, r io.Reader, w io.Writer, translator DocumentTranslator, source, target string, scale float64) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	foundPages := false
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if strings.HasPrefix(strings.TrimSpace(line), ".fs") {
				line = ShrinkFont(line, scale)
			}
			if _, werr := bw.WriteString(line); werr != nil {
				return fmt.Errorf("writing header: %w", werr)
			}
			if strings.TrimSpace(line) == PageContainer {
				foundPages = true
				break
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
	}

	if foundPages {
		var lines []string
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				lines = append(lines, line)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
		}

		for _, line := range translator.TranslateDocument(ctx, lines, source, target) {
			if _, err := bw.WriteString(line); err != nil {
				return fmt.Errorf("writing body: %w", err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
