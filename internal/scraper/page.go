package scraper

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "hotelpriceworker/pkg/errors"
)

// Element is a queryable node of a rendered page.
type Element interface {
	// Text returns the visible text of the element, trimmed.
	Text() string
	// Attr returns the named attribute and whether it exists.
	Attr(name string) (string, bool)
	// Find returns child elements matching a CSS selector.
	Find(selector string) []Element
	// FindContaining returns child elements matching selector whose text
	// contains substr.
	FindContaining(selector, substr string) []Element
}

// Page is the DOM-query capability the locator strategies run against.
// Implemented by a goquery snapshot of a rendered page; Evaluate is wired to
// the live browser session when one exists.
type Page interface {
	Title() string
	BodyText() string
	Find(selector string) []Element
	FindContaining(selector, substr string) []Element
	// Evaluate runs a script in the page and decodes its result into out.
	Evaluate(script string, out any) error
}

// EvalFunc runs a script against the live page backing a snapshot.
type EvalFunc func(script string, out any) error

// DocPage is a Page over a parsed HTML document.
type DocPage struct {
	doc  *goquery.Document
	eval EvalFunc
}

// NewDocPage wraps a goquery document. eval may be nil for static pages.
func NewDocPage(doc *goquery.Document, eval EvalFunc) *DocPage {
	return &DocPage{doc: doc, eval: eval}
}

// NewPageFromReader parses HTML from r into a DocPage without a script engine.
func NewPageFromReader(r io.Reader) (*DocPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.NewParsing("", "failed to parse page HTML", err)
	}
	return NewDocPage(doc, nil), nil
}

// NewPageFromHTML parses an HTML string into a DocPage. Used heavily by tests.
func NewPageFromHTML(html string) (*DocPage, error) {
	return NewPageFromReader(strings.NewReader(html))
}

// Title returns the document title text
func (p *DocPage) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// BodyText returns the visible body text
func (p *DocPage) BodyText() string {
	return strings.TrimSpace(p.doc.Find("body").Text())
}

// Find returns elements matching a CSS selector
func (p *DocPage) Find(selector string) []Element {
	return wrapSelection(p.doc.Find(selector))
}

// FindContaining returns elements matching selector whose text contains substr
func (p *DocPage) FindContaining(selector, substr string) []Element {
	return wrapSelection(filterContaining(p.doc.Find(selector), substr))
}

// Evaluate runs script against the live session backing this snapshot
func (p *DocPage) Evaluate(script string, out any) error {
	if p.eval == nil {
		return apperrors.NewExtraction("", "page has no script engine", nil)
	}
	return p.eval(script, out)
}

type docElement struct {
	sel *goquery.Selection
}

func (e *docElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *docElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *docElement) Find(selector string) []Element {
	return wrapSelection(e.sel.Find(selector))
}

func (e *docElement) FindContaining(selector, substr string) []Element {
	return wrapSelection(filterContaining(e.sel.Find(selector), substr))
}

func filterContaining(sel *goquery.Selection, substr string) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), substr)
	})
}

func wrapSelection(sel *goquery.Selection) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &docElement{sel: s})
	})
	return elements
}
