// Package document normalizes an annotated SVG diagram for transform-driven
// display: it strips intrinsic sizing, pins the root to its container's
// origin, unwraps redirect links and lifts out the embedded word index.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/inamate/svgview/internal/search"
	"github.com/inamate/svgview/internal/viewport"
)

// SearchDataID is the reserved id of the element carrying the word index.
const SearchDataID = "search-data"

// searchDataAttr holds the serialized word list on the SearchDataID element.
const searchDataAttr = "data-words"

var (
	ErrNoRootElement = errors.New("document has no root <svg> element")
	ErrNoViewBox     = errors.New("document has no usable viewBox or width/height")
)

// Document is a normalized diagram ready to be mounted.
type Document struct {
	// ViewBox is the diagram's viewable area in document units.
	ViewBox viewport.Rect

	// Index is the embedded word index. It is empty when the diagram has no
	// index or the index is malformed.
	Index search.Index

	// IndexErr records why a present index could not be decoded.
	IndexErr error

	// Links counts the link elements that were rewritten.
	Links int

	markup []byte
}

// Size returns the document's content size.
func (d *Document) Size() viewport.Size {
	return d.ViewBox.Size()
}

// Markup returns the normalized SVG.
func (d *Document) Markup() []byte {
	return d.markup
}

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// RedirectHosts overrides DefaultRedirectHosts when non-nil.
	RedirectHosts []string
}

func (o NormalizeOptions) redirectHosts() []string {
	if o.RedirectHosts != nil {
		return o.RedirectHosts
	}
	return DefaultRedirectHosts
}

// Normalize parses an SVG document and rewrites it for display inside a
// transformed container. A missing root element or viewable area is an
// error; a missing or malformed word index is not.
func Normalize(data []byte, opts NormalizeOptions) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	root := tree.Root()
	if root == nil || root.Tag != "svg" {
		return nil, ErrNoRootElement
	}

	box, err := viewBox(root)
	if err != nil {
		return nil, err
	}

	doc := &Document{ViewBox: box}

	pinRoot(root, box)
	doc.Links = rewriteLinks(root, opts.redirectHosts())
	doc.Index, doc.IndexErr = extractIndex(root)
	if doc.IndexErr != nil {
		slog.Warn("word index unreadable, search disabled", "error", doc.IndexErr)
	}

	doc.markup, err = tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}
	return doc, nil
}

// viewBox reads the root's viewBox, falling back to numeric width/height
// attributes. The fallback is written back as a viewBox so that removing
// the intrinsic size does not change what is drawn.
func viewBox(root *etree.Element) (viewport.Rect, error) {
	if v, ok := attr(root, "", "viewBox"); ok {
		if r, ok := parseViewBox(v); ok {
			return r, nil
		}
	}

	w, wok := parseLength(attrValue(root, "", "width"))
	h, hok := parseLength(attrValue(root, "", "height"))
	if !wok || !hok {
		return viewport.Rect{}, ErrNoViewBox
	}

	r := viewport.Rect{Width: w, Height: h}
	setAttr(root, "viewBox", fmt.Sprintf("0 0 %s %s", fmtFloat(w), fmtFloat(h)))
	return r, nil
}

func parseViewBox(v string) (viewport.Rect, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return viewport.Rect{}, false
	}

	var n [4]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return viewport.Rect{}, false
		}
		n[i] = x
	}

	r := viewport.Rect{X: n[0], Y: n[1], Width: n[2], Height: n[3]}
	if r.IsEmpty() {
		return viewport.Rect{}, false
	}
	return r, true
}

// parseLength accepts plain numbers and px values. Relative units such as
// % or em cannot be resolved without a layout and are rejected.
func parseLength(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	x, err := strconv.ParseFloat(v, 64)
	if err != nil || x <= 0 {
		return 0, false
	}
	return x, true
}

// pinRoot drops the intrinsic width/height and sizes the root in document
// units at its container's top-left, with the transform origin at (0,0).
func pinRoot(root *etree.Element, box viewport.Rect) {
	removeAttr(root, "", "width")
	removeAttr(root, "", "height")

	style := strings.TrimSpace(attrValue(root, "", "style"))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	style += fmt.Sprintf(
		"position:absolute;left:0;top:0;transform-origin:0 0;width:%spx;height:%spx;max-width:none;",
		fmtFloat(box.Width), fmtFloat(box.Height))
	setAttr(root, "style", style)
}

// rewriteLinks unwraps redirect hrefs and makes every link open in a new
// browsing context. It returns the number of link elements seen.
func rewriteLinks(root *etree.Element, hosts []string) int {
	n := 0
	walk(root, func(el *etree.Element) bool {
		if el.Tag != "a" {
			return true
		}
		n++
		for i := range el.Attr {
			a := &el.Attr[i]
			if a.Key == "href" && (a.Space == "" || a.Space == "xlink") {
				a.Value = UnwrapRedirect(a.Value, hosts)
			}
		}
		setAttr(el, "target", "_blank")
		setAttr(el, "rel", "noopener noreferrer")
		return true
	})
	return n
}

// extractIndex lifts the word index out of the tree. The carrier element is
// removed even when its payload is malformed, so it never renders.
func extractIndex(root *etree.Element) (search.Index, error) {
	carrier := findByID(root, SearchDataID)
	if carrier == nil {
		return search.Index{}, nil
	}
	if parent := carrier.Parent(); parent != nil {
		parent.RemoveChild(carrier)
	}

	idx, err := search.ParseIndex([]byte(attrValue(carrier, "", searchDataAttr)))
	if err != nil {
		return search.Index{}, err
	}
	return idx, nil
}

func findByID(root *etree.Element, id string) *etree.Element {
	var found *etree.Element
	walk(root, func(el *etree.Element) bool {
		if v, ok := attr(el, "", "id"); ok && v == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// walk visits el and its descendants depth-first until fn returns false.
func walk(el *etree.Element, fn func(*etree.Element) bool) bool {
	if !fn(el) {
		return false
	}
	for _, c := range el.ChildElements() {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// attr looks up an attribute by exact namespace prefix and key. etree's own
// SelectAttr treats an empty prefix as a wildcard, which would confuse
// href with xlink:href.
func attr(el *etree.Element, space, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Space == space && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func attrValue(el *etree.Element, space, key string) string {
	v, _ := attr(el, space, key)
	return v
}

func setAttr(el *etree.Element, key, value string) {
	for i := range el.Attr {
		if el.Attr[i].Space == "" && el.Attr[i].Key == key {
			el.Attr[i].Value = value
			return
		}
	}
	el.CreateAttr(key, value)
}

func removeAttr(el *etree.Element, space, key string) {
	el.Attr = slices.DeleteFunc(el.Attr, func(a etree.Attr) bool {
		return a.Space == space && a.Key == key
	})
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
