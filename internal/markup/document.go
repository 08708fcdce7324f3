// Package markup parses the XML and XHTML documents found inside an EPUB
// container into a small navigable tree.
//
// Two parsing modes are supported. ModeXML is strict and is used for the
// container descriptor and the package document. ModeHTML tolerates unclosed
// tags, HTML entities and namespace prefixes and is used for content
// documents. Element lookups match on local names, so "opf:item" and "item"
// are the same tag.
package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// Mode selects the parser used by Parse.
type Mode int

const (
	// ModeXML parses well-formed XML and fails on syntax errors.
	ModeXML Mode = iota
	// ModeHTML parses XHTML/HTML with HTML5 error recovery.
	ModeHTML
)

func (m Mode) String() string {
	switch m {
	case ModeXML:
		return "xml"
	case ModeHTML:
		return "html"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrMalformed is returned when a document cannot be parsed.
var ErrMalformed = errors.New("malformed markup")

// parserErrorTag is the element browsers embed in documents they failed to
// parse. Documents exported through a browser sometimes carry it.
const parserErrorTag = "parsererror"

// selfClosingRawTextPattern matches <title/>, <script/>, <style/> and
// <textarea/>. The HTML parser treats these as start tags and would swallow
// the rest of the document as raw text.
var selfClosingRawTextPattern = regexp.MustCompile(`(?is)<(title|script|style|textarea)\b([^>]*?)\s*/>`)

// impliedTags are the elements the HTML parser creates when the source
// omits them. They are only visible to lookups when the source had them.
var impliedTags = map[string]*regexp.Regexp{
	"html": regexp.MustCompile(`(?i)<(?:[a-z0-9_.-]+:)?html[\s/>]`),
	"head": regexp.MustCompile(`(?i)<(?:[a-z0-9_.-]+:)?head[\s/>]`),
	"body": regexp.MustCompile(`(?i)<(?:[a-z0-9_.-]+:)?body[\s/>]`),
}

// Document is a parsed XML or HTML document.
type Document struct {
	mode Mode
	xml  *etree.Document
	html *goquery.Document

	// implied holds parser-synthesized nodes hidden from All and First.
	implied map[*html.Node]bool
}

// Element is a single element of a Document.
type Element struct {
	xml  *etree.Element
	html *html.Node
}

// Parse parses data in the given mode. It fails only when the parser reports
// a structural error; missing elements are not an error.
func Parse(data []byte, mode Mode) (*Document, error) {
	var doc *Document
	switch mode {
	case ModeXML:
		d, err := parseXML(data)
		if err != nil {
			return nil, err
		}
		doc = d
	case ModeHTML:
		d, err := parseHTML(data)
		if err != nil {
			return nil, err
		}
		doc = d
	default:
		return nil, fmt.Errorf("unsupported markup mode %d", int(mode))
	}

	if pe := doc.First(parserErrorTag); pe != nil {
		msg := strings.TrimSpace(pe.Text())
		if msg == "" {
			msg = "unknown parser error"
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformed, msg)
	}

	return doc, nil
}

func parseXML(data []byte) (*Document, error) {
	d := etree.NewDocument()
	// HTML named entities (&nbsp; and friends) show up in hand-written OPF files.
	d.ReadSettings.Entity = xml.HTMLEntity
	if err := d.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return &Document{mode: ModeXML, xml: d}, nil
}

func parseHTML(data []byte) (*Document, error) {
	data = selfClosingRawTextPattern.ReplaceAll(data, []byte(`<$1$2></$1>`))
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	doc := &Document{mode: ModeHTML, html: d}

	var missing []string
	for tag, re := range impliedTags {
		if !re.Match(data) {
			missing = append(missing, tag)
		}
	}
	if len(missing) > 0 {
		doc.implied = make(map[*html.Node]bool)
		for _, n := range d.Nodes {
			markImplied(n, missing, doc.implied)
		}
	}
	return doc, nil
}

func markImplied(n *html.Node, tags []string, implied map[*html.Node]bool) {
	if n.Type == html.ElementNode && slices.Contains(tags, n.Data) {
		implied[n] = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		markImplied(c, tags, implied)
	}
}

// Mode reports the mode the document was parsed with.
func (d *Document) Mode() Mode {
	return d.mode
}

// Root returns the document element, or nil if there is none. In ModeHTML
// the document element is returned even when the source omitted it.
func (d *Document) Root() *Element {
	if d.mode == ModeXML {
		if r := d.xml.Root(); r != nil {
			return &Element{xml: r}
		}
		return nil
	}
	for _, n := range d.html.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				return &Element{html: c}
			}
		}
	}
	return nil
}

// All returns every element named tag in document order. Elements the HTML
// parser synthesized (an html, head or body missing from the source) are
// not reported.
func (d *Document) All(tag string) []*Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	var out []*Element
	root.walk(func(e *Element) bool {
		if e.matches(tag) && !d.isImplied(e) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// First returns the first element named tag, or nil.
func (d *Document) First(tag string) *Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	var found *Element
	root.walk(func(e *Element) bool {
		if e.matches(tag) && !d.isImplied(e) {
			found = e
			return false
		}
		return true
	})
	return found
}

// FirstOf tries tags in priority order and returns the first element whose
// flattened text is not blank. It returns nil when no such element exists.
func (d *Document) FirstOf(tags ...string) *Element {
	for _, tag := range tags {
		for _, e := range d.All(tag) {
			if strings.TrimSpace(e.Text()) != "" {
				return e
			}
		}
	}
	return nil
}

func (d *Document) isImplied(e *Element) bool {
	return e.html != nil && d.implied[e.html]
}

// Name returns the local name of the element.
func (e *Element) Name() string {
	if e.xml != nil {
		return e.xml.Tag
	}
	return localName(e.html.Data)
}

// Attr returns the value of the named attribute. Namespace prefixes on the
// attribute are ignored.
func (e *Element) Attr(name string) (string, bool) {
	if e.xml != nil {
		a := e.xml.SelectAttr(name)
		if a == nil {
			return "", false
		}
		return a.Value, true
	}
	for _, a := range e.html.Attr {
		if a.Key == name || localName(a.Key) == name {
			return a.Val, true
		}
	}
	return "", false
}

// Children returns the direct child elements named tag.
func (e *Element) Children(tag string) []*Element {
	var out []*Element
	if e.xml != nil {
		for _, c := range e.xml.ChildElements() {
			if c.Tag == tag {
				out = append(out, &Element{xml: c})
			}
		}
		return out
	}
	for c := e.html.FirstChild; c != nil; c = c.NextSibling {
		child := &Element{html: c}
		if c.Type == html.ElementNode && child.matches(tag) {
			out = append(out, child)
		}
	}
	return out
}

// Text returns the concatenation of every text node below e in document
// order, like the DOM textContent property.
func (e *Element) Text() string {
	if e.xml != nil {
		var sb strings.Builder
		flattenXML(&sb, e.xml)
		return sb.String()
	}
	return goquery.NewDocumentFromNode(e.html).Text()
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.xml != nil {
		if p := e.xml.Parent(); p != nil {
			p.RemoveChild(e.xml)
		}
		return
	}
	if p := e.html.Parent; p != nil {
		p.RemoveChild(e.html)
	}
}

func (e *Element) matches(tag string) bool {
	if e.xml != nil {
		return e.xml.Tag == tag
	}
	return e.html.Type == html.ElementNode && strings.EqualFold(localName(e.html.Data), tag)
}

// walk visits e and its descendant elements depth-first until fn returns false.
func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	if e.xml != nil {
		for _, c := range e.xml.ChildElements() {
			if !(&Element{xml: c}).walk(fn) {
				return false
			}
		}
		return true
	}
	for c := e.html.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if !(&Element{html: c}).walk(fn) {
			return false
		}
	}
	return true
}

func flattenXML(sb *strings.Builder, el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			flattenXML(sb, t)
		}
	}
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
