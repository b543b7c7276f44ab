// Package htmlpage finds the translatable text blocks of one pdf2htmlEX page
// and translates them concurrently.
//
// pdf2htmlEX writes every page as a single line starting with
// <div id="pf...">. Inside a page, direct child divs are blocks. A block
// carrying many classes is a positioned text line and is translated as is;
// other blocks (the page content box) are descended one level and each
// child div is translated on its own.
package htmlpage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PagePrefix marks a line holding one page.
const PagePrefix = `<div id="pf`

const (
	// DefaultMultiClassThreshold: a block with more classes is a leaf.
	DefaultMultiClassThreshold = 5
	// DefaultMarkerClassThreshold: a span with at least this many classes is
	// a style anchor that must survive translation.
	DefaultMarkerClassThreshold = 4
)

// ErrNotAPage is returned by Parse for fragments that do not hold a page.
var ErrNotAPage = errors.New("fragment is not a page")

// IsPage reports whether fragment starts with the page marker.
func IsPage(fragment string) bool {
	return strings.HasPrefix(fragment, PagePrefix)
}

// Walker identifies leaf blocks in a page.
type Walker struct {
	MultiClassThreshold  int
	MarkerClassThreshold int
}

// NewWalker returns a walker with the default thresholds.
func NewWalker() *Walker {
	return &Walker{
		MultiClassThreshold:  DefaultMultiClassThreshold,
		MarkerClassThreshold: DefaultMarkerClassThreshold,
	}
}

// Leaf is one translatable block.
type Leaf struct {
	// Text is the full text content of the block, marker text included.
	Text string
	// MarkerClass is the class attribute of the style anchor, empty when the
	// block has none.
	MarkerClass string

	sel *goquery.Selection
}

// HasMarker reports whether a placeholder span will be appended.
func (l *Leaf) HasMarker() bool {
	return l.MarkerClass != ""
}

// Apply replaces the block content with translated, followed by a blank
// placeholder span when the block had a marker.
func (l *Leaf) Apply(translated string) {
	l.sel.SetText(translated)
	if l.MarkerClass == "" {
		return
	}
	placeholder := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: l.MarkerClass}},
	}
	placeholder.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
	l.sel.AppendNodes(placeholder)
}

// Page is a parsed page fragment.
type Page struct {
	Leaves []*Leaf

	doc *goquery.Document
	eol string
}

// Render serializes the page, with the original line ending restored.
func (p *Page) Render() (string, error) {
	out, err := p.doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return out + p.eol, nil
}

// Parse parses one fragment and collects its leaves in document order.
// Blocks without visible text are skipped.
func (w *Walker) Parse(fragment string) (*Page, error) {
	if !IsPage(fragment) {
		return nil, ErrNotAPage
	}

	body, eol := splitLineEnding(fragment)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	page := &Page{doc: doc, eol: eol}
	root := doc.Find("body > div").First()
	if root.Length() == 0 {
		return nil, ErrNotAPage
	}

	root.ChildrenFiltered("div").Each(func(_ int, block *goquery.Selection) {
		if isBlank(block.Text()) {
			return
		}
		if classCount(block) > w.MultiClassThreshold {
			page.Leaves = append(page.Leaves, w.leaf(block))
			return
		}
		block.ChildrenFiltered("div").Each(func(_ int, sub *goquery.Selection) {
			if isBlank(sub.Text()) {
				return
			}
			page.Leaves = append(page.Leaves, w.leaf(sub))
		})
	})
	return page, nil
}

func (w *Walker) leaf(sel *goquery.Selection) *Leaf {
	l := &Leaf{Text: sel.Text(), sel: sel}
	sel.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if classCount(span) >= w.MarkerClassThreshold {
			l.MarkerClass, _ = span.Attr("class")
			return false
		}
		return true
	})
	return l
}

func classCount(sel *goquery.Selection) int {
	class, _ := sel.Attr("class")
	return len(strings.Fields(class))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func splitLineEnding(s string) (string, string) {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2], "\r\n"
	case strings.HasSuffix(s, "\n"):
		return s[:len(s)-1], "\n"
	}
	return s, ""
}
