// Package parser converts consolidated-text markup into normalized
// documents. It is a stateless transform: no I/O, no hard failures.
// Upstream markup spans several decades of layouts, so missing structure
// degrades to fewer extracted provisions instead of an error.
package parser

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/iurisdata/boe-ingest/internal/boe"
	"github.com/iurisdata/boe-ingest/internal/metrics"
)

// Extraction limits.
const (
	// MaxBodyChars bounds the stored body of a single provision.
	MaxBodyChars = 12000
	// minBodyChars discards noise bodies after normalization.
	minBodyChars = 5
	// chapterWindow bounds the backward scan for an enclosing heading.
	// Chapters longer than this lose attribution; known approximation.
	chapterWindow = 10000
	// refPrefix tags derived reference keys.
	refPrefix = "art"
)

// ItemMeta carries the catalog metadata echoed into the output document.
type ItemMeta struct {
	ID          string
	Title       string
	ShortName   string
	Status      boe.LegalStatus
	IssuedDate  *time.Time
	InForceDate *time.Time
	URL         string
}

var (
	// Heading form: "Artículo 3 bis. Definiciones". The modifier set is
	// closed; anything else is not an article heading.
	articleHeadRe = regexp.MustCompile(
		`(?i)^\s*art[íi]culo\s+(\d+(?:\s*(?:bis|ter|qu[aá]ter|quinquies|sexies|septies|octies|nonies))?)\s*\.?\s*(.*)$`)

	// Fallback layout: article headings as bare heading elements.
	legacyHeadRe = regexp.MustCompile(
		`(?is)<(?:h[1-6]|p)[^>]*>\s*(art[íi]culo\s+\d+(?:\s*(?:bis|ter|qu[aá]ter|quinquies|sexies|septies|octies|nonies))?\s*\.?[^<]*)</(?:h[1-6]|p)>`)

	chapterRe    = regexp.MustCompile(`(?i)(CAP[ÍI]TULO|T[ÍI]TULO)\s+(PRELIMINAR|[IVXLCDM]+|\d+)\.?([^<]{0,120})?`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	modifierAccents = strings.NewReplacer("á", "a", "Á", "A")
)

// Parse transforms markup plus catalog metadata into a seed record.
// Parsing identical input always yields identical output.
func Parse(markup []byte, meta ItemMeta) *boe.NormalizedDocument {
	doc := &boe.NormalizedDocument{
		ID:          meta.ID,
		Title:       meta.Title,
		ShortName:   meta.ShortName,
		Status:      meta.Status,
		IssuedDate:  meta.IssuedDate,
		InForceDate: meta.InForceDate,
		URL:         meta.URL,
		Provisions:  []boe.Provision{},
		Definitions: []boe.Definition{},
	}

	raw := string(markup)
	provisions := parseContainers(markup, raw)
	if len(provisions) == 0 {
		provisions = parseLegacy(raw)
	}
	doc.Provisions = append(doc.Provisions, provisions...)
	metrics.ProvisionsParsed.Add(float64(len(provisions)))

	for _, p := range provisions {
		defs := extractDefinitions(p)
		doc.Definitions = append(doc.Definitions, defs...)
	}
	metrics.DefinitionsExtracted.Add(float64(len(doc.Definitions)))

	return doc
}

// DeriveRef maps an article ordinal to its stable reference key:
// "3 bis" -> "art3bis". Equal ordinals always map to the same key.
func DeriveRef(ordinal string) string {
	key := strings.ToLower(modifierAccents.Replace(ordinal))
	key = whitespaceRe.ReplaceAllString(key, "")
	return refPrefix + key
}

// parseContainers is the primary strategy: provision container blocks with
// an embedded article heading.
func parseContainers(markup []byte, raw string) []boe.Provision {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil
	}

	var out []boe.Provision
	cursor := 0
	gq.Find("div.articulo, div.bloque").Each(func(_ int, container *goquery.Selection) {
		headSel := "h1,h2,h3,h4,h5,h6"
		head := container.Find(headSel).First()
		if head.Length() == 0 {
			// Older layouts carry the article label in a leading paragraph.
			headSel = "p"
			head = container.Find(headSel).First()
		}
		if head.Length() == 0 {
			return
		}
		label := normalizeText(head.Text())
		m := articleHeadRe.FindStringSubmatch(label)
		if m == nil {
			return
		}

		clone := container.Clone()
		clone.Find(headSel).First().Remove()
		body := truncate(normalizeText(clone.Text()))
		if len([]rune(body)) < minBodyChars {
			return
		}

		chapter, next := chapterFor(raw, label, cursor)
		cursor = next
		out = append(out, boe.Provision{
			Ref:     DeriveRef(m[1]),
			Chapter: chapter,
			Label:   label,
			Heading: strings.TrimSpace(m[2]),
			Text:    body,
		})
	})
	return out
}

// parseLegacy is the fallback strategy for layouts without provision
// containers: article headings are matched directly and the span between
// one heading and the next becomes that provision's block.
func parseLegacy(raw string) []boe.Provision {
	matches := legacyHeadRe.FindAllStringSubmatchIndex(raw, -1)
	if matches == nil {
		return nil
	}

	var out []boe.Provision
	for i, m := range matches {
		label := normalizeText(raw[m[2]:m[3]])
		hm := articleHeadRe.FindStringSubmatch(label)
		if hm == nil {
			continue
		}

		blockStart := m[1]
		blockEnd := len(raw)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		body := truncate(normalizeText(stripTags(raw[blockStart:blockEnd])))
		if len([]rune(body)) < minBodyChars {
			continue
		}

		chapter, _ := chapterFor(raw[:m[0]], "", m[0])
		out = append(out, boe.Provision{
			Ref:     DeriveRef(hm[1]),
			Chapter: chapter,
			Label:   label,
			Heading: strings.TrimSpace(hm[2]),
			Text:    body,
		})
	}
	return out
}

// chapterFor scans backward from the provision's position in the raw
// markup, within a bounded window, for the most recent chapter or title
// heading. The position is located by searching for the heading label
// from cursor onward; the advanced cursor is returned so repeated
// labels resolve in document order.
func chapterFor(raw, label string, cursor int) (string, int) {
	pos := len(raw)
	next := cursor
	if label != "" {
		if idx := indexFrom(raw, label, cursor); idx >= 0 {
			pos = idx
			next = idx + len(label)
		}
	}

	start := pos - chapterWindow
	if start < 0 {
		start = 0
	}
	window := raw[start:pos]

	ms := chapterRe.FindAllStringSubmatch(window, -1)
	if len(ms) == 0 {
		return "", next
	}
	last := ms[len(ms)-1]
	return normalizeText(strings.Join(last[1:], " ")), next
}

// indexFrom finds label in raw at or after cursor; the label text may be
// entity-encoded or split across tags in the markup, so fall back to the
// bare article token when the full label is absent.
func indexFrom(raw, label string, cursor int) int {
	if cursor < 0 || cursor > len(raw) {
		cursor = 0
	}
	if idx := strings.Index(raw[cursor:], label); idx >= 0 {
		return cursor + idx
	}
	token := label
	if cut := strings.IndexByte(label, '.'); cut > 0 {
		token = label[:cut]
	}
	if idx := strings.Index(raw[cursor:], token); idx >= 0 {
		return cursor + idx
	}
	return -1
}

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}

// normalizeText decodes entities, collapses whitespace, and trims.
func normalizeText(s string) string {
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxBodyChars {
		return s
	}
	return string(runes[:MaxBodyChars])
}
