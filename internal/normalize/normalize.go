// Package normalize converts fetched site content into comparable
// plain text. Pipeline order:
//  1. charset decode honoring the Content-Type header or <meta> hints
//  2. tag stripping for HTML content, entity decoding included
//  3. NFKC normalization, case folding, combining mark and format
//     char removal, width folding
//  4. whitespace collapse to single ASCII spaces, control bytes dropped
//
// The result is deterministic and never contains the 0x00 byte used as
// the corpus separator.
package normalize

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/textdup/sitescore/internal/domain"
)

// Kind is the detected content kind of a fetched body.
type Kind int

// Content kinds.
const (
	KindUnknown Kind = iota
	KindHTML
	KindPlainText
)

// Normalizer turns raw fetched bytes into normalized text. Safe for
// concurrent use.
type Normalizer struct {
	cutAfter  string
	cutBefore string
}

// New constructs a Normalizer.
func New() *Normalizer { return &Normalizer{} }

// WithLandmarks trims extracted text to the portion between two
// landmark substrings before folding, when both are present. Used to
// drop navigation chrome on known site layouts.
func (n *Normalizer) WithLandmarks(after, before string) *Normalizer {
	n.cutAfter = after
	n.cutBefore = before
	return n
}

// Normalize decodes, extracts and folds raw fetched content. srcURL is
// used only for error context. Failures are per-document DecodeErrors.
func (n *Normalizer) Normalize(srcURL string, raw []byte, contentType string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	decoded, cs, err := decode(raw, contentType)
	if err != nil {
		return "", domain.NewDecodeError(srcURL, cs, err)
	}

	var text string
	switch kind := DetectKind(contentType); {
	case kind == KindHTML, kind == KindUnknown && looksLikeHTML(decoded):
		text, err = extractText(decoded)
		if err != nil {
			return "", domain.NewDecodeError(srcURL, cs, err)
		}
	default:
		text = string(decoded)
	}

	text = CutLandmarks(text, n.cutAfter, n.cutBefore)
	return collapseSpaces(fold(text)), nil
}

// DetectKind classifies content by its Content-Type media type.
func DetectKind(contentType string) Kind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindUnknown
	}
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return KindHTML
	case strings.HasPrefix(mt, "text/"):
		return KindPlainText
	default:
		return KindUnknown
	}
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// decode converts raw bytes to UTF-8. A charset declared in the
// Content-Type header is authoritative; without one the encoding is
// sniffed from the content (BOM, <meta>, fallback heuristics).
func decode(raw []byte, contentType string) ([]byte, string, error) {
	if cs := headerCharset(contentType); cs != "" {
		e, name := charset.Lookup(cs)
		if e == nil {
			return nil, cs, fmt.Errorf("unsupported charset %q", cs)
		}
		out, _, err := transform.Bytes(e.NewDecoder(), raw)
		return out, name, err
	}
	e, name, _ := charset.DetermineEncoding(raw, contentType)
	out, _, err := transform.Bytes(e.NewDecoder(), raw)
	return out, name, err
}

func headerCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// skipElements subtrees contribute no text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"object":   true,
}

// blockElements get a separator around them so words from adjacent
// blocks do not run together.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// extractText collects the text nodes of an HTML document. The parser
// decodes entities; comments and skipElements subtrees are dropped.
func extractText(docBytes []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(docBytes))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			if skipElements[node.Data] {
				return
			}
			if blockElements[node.Data] {
				b.WriteByte(' ')
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if node.Type == html.ElementNode && blockElements[node.Data] {
			b.WriteByte(' ')
		}
	}
	walk(doc)
	return b.String(), nil
}

// chainPool holds fresh transformer chains; order matters.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

func fold(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	return out
}

// collapseSpaces converts runs of whitespace, control bytes and decode
// replacement chars into a single ASCII space and trims the edges.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == utf8.RuneError {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
	}
	return b.String()
}
