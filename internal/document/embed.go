package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/inamate/svgview/internal/search"
	"github.com/inamate/svgview/internal/viewport"
)

var ErrNoPage = errors.New("bbox output has no <page> element")

// Embed appends a hidden carrier element holding words to the root of svg,
// replacing any index embedded earlier. Normalize reads it back and removes
// it before display.
func Embed(svg []byte, words []search.Entry) ([]byte, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(svg); err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	root := tree.Root()
	if root == nil || root.Tag != "svg" {
		return nil, ErrNoRootElement
	}

	if old := findByID(root, SearchDataID); old != nil && old.Parent() != nil {
		old.Parent().RemoveChild(old)
	}

	if words == nil {
		words = []search.Entry{}
	}
	payload, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("encode words: %w", err)
	}

	g := root.CreateElement("g")
	g.CreateAttr("id", SearchDataID)
	g.CreateAttr("display", "none")
	g.CreateAttr(searchDataAttr, string(payload))

	out, err := tree.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}
	return out, nil
}

// ViewBoxOf returns the viewable area of an SVG without normalizing it.
func ViewBoxOf(svg []byte) (viewport.Rect, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(svg); err != nil {
		return viewport.Rect{}, fmt.Errorf("parse svg: %w", err)
	}
	root := tree.Root()
	if root == nil || root.Tag != "svg" {
		return viewport.Rect{}, ErrNoRootElement
	}
	return viewBox(root)
}

// Word is one word box as reported by `pdftotext -bbox`, in PDF points.
type Word struct {
	Text string
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Page is the first page of a `pdftotext -bbox` document.
type Page struct {
	Width  float64
	Height float64
	Words  []Word
}

// ParseBBox reads the XHTML produced by `pdftotext -bbox` and returns its
// first page. Later pages are ignored: a diagram is a single page.
func ParseBBox(r io.Reader) (Page, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.Permissive = true
	if _, err := tree.ReadFrom(r); err != nil {
		return Page{}, fmt.Errorf("parse bbox output: %w", err)
	}
	if tree.Root() == nil {
		return Page{}, ErrNoPage
	}

	var pageEl *etree.Element
	walk(tree.Root(), func(el *etree.Element) bool {
		if el.Tag == "page" {
			pageEl = el
			return false
		}
		return true
	})
	if pageEl == nil {
		return Page{}, ErrNoPage
	}

	page := Page{
		Width:  number(pageEl, "width"),
		Height: number(pageEl, "height"),
	}
	if page.Width <= 0 || page.Height <= 0 {
		return Page{}, fmt.Errorf("bbox page has invalid size %vx%v", page.Width, page.Height)
	}

	walk(pageEl, func(el *etree.Element) bool {
		if el.Tag != "word" {
			return true
		}
		page.Words = append(page.Words, Word{
			Text: el.Text(),
			XMin: number(el, "xMin"),
			YMin: number(el, "yMin"),
			XMax: number(el, "xMax"),
			YMax: number(el, "yMax"),
		})
		return true
	})
	return page, nil
}

func number(el *etree.Element, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(attrValue(el, "", key)), 64)
	if err != nil {
		return 0
	}
	return v
}

// WordsFromPage scales the page's word boxes into the coordinate space of a
// diagram of the given size, dropping blank words. It also returns the
// per-axis scale factors applied.
func WordsFromPage(page Page, svg viewport.Size) (words []search.Entry, sx, sy float64) {
	sx = svg.W / page.Width
	sy = svg.H / page.Height

	for _, w := range page.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		x0, y0 := w.XMin*sx, w.YMin*sy
		x1, y1 := w.XMax*sx, w.YMax*sy
		words = append(words, search.Entry{
			Text: text,
			X:    round1(x0),
			Y:    round1(y0),
			W:    round1(x1 - x0),
			H:    round1(y1 - y0),
		})
	}
	return words, sx, sy
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
