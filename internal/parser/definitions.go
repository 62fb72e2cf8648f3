package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

// Definition guards: shorter terms and definitions are almost always
// mis-segmented matches, not real definitions.
const (
	minTermChars = 2
	maxTermChars = 99
	minDefChars  = 10
)

var (
	// Provisions that plausibly contain definitions. Everything else is
	// skipped without running the extractors.
	definitionTriggerRe = regexp.MustCompile(
		`(?i)definici|se entender[áa] por|se entiende por|a los efectos de`)

	letteredMarkerRe = regexp.MustCompile(`(?:^|\s)([a-zñ])\)\s+`)
	numberedMarkerRe = regexp.MustCompile(`(?:^|\s)(\d{1,2})\.\s+`)

	quotedPairRes = []*regexp.Regexp{
		regexp.MustCompile(`«([^»]+)»\s*:\s*([^«]+)`),
		regexp.MustCompile(`“([^”]+)”\s*:\s*([^“]+)`),
	}
)

// extractDefinitions runs the three pattern families over one provision
// and merges their candidates. Duplicate terms within the provision are
// dropped case-insensitively, whichever extractor produced them.
func extractDefinitions(p boe.Provision) []boe.Definition {
	if !definitionTriggerRe.MatchString(p.Heading) && !definitionTriggerRe.MatchString(p.Text) {
		return nil
	}

	var candidates []boe.Definition
	candidates = append(candidates, extractListed(p, letteredMarkerRe)...)
	candidates = append(candidates, extractQuoted(p)...)
	candidates = append(candidates, extractListed(p, numberedMarkerRe)...)

	seen := make(map[string]struct{})
	out := make([]boe.Definition, 0, len(candidates))
	for _, d := range candidates {
		key := strings.ToLower(d.Term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}

// extractListed handles "a) Term: definition." and "1. Term: definition."
// styles. Marker positions delimit candidate segments; the first colon in
// a segment splits term from definition.
func extractListed(p boe.Provision, marker *regexp.Regexp) []boe.Definition {
	locs := marker.FindAllStringIndex(p.Text, -1)
	if locs == nil {
		return nil
	}

	var out []boe.Definition
	for i, loc := range locs {
		end := len(p.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := p.Text[loc[1]:end]
		term, def, ok := splitDefinition(segment)
		if !ok {
			continue
		}
		out = append(out, boe.Definition{Term: term, Text: def, SourceRef: p.Ref})
	}
	return out
}

// extractQuoted handles "«Term»: definition." and curly-quote variants.
func extractQuoted(p boe.Provision) []boe.Definition {
	var out []boe.Definition
	for _, re := range quotedPairRes {
		for _, m := range re.FindAllStringSubmatch(p.Text, -1) {
			term := strings.TrimSpace(m[1])
			def := strings.TrimSpace(m[2])
			if !validDefinition(term, def) {
				continue
			}
			out = append(out, boe.Definition{Term: term, Text: def, SourceRef: p.Ref})
		}
	}
	return out
}

// splitDefinition splits a list segment at its first colon.
func splitDefinition(segment string) (term, def string, ok bool) {
	colon := strings.Index(segment, ":")
	if colon < 0 {
		return "", "", false
	}
	term = strings.Trim(strings.TrimSpace(segment[:colon]), "«»“”\"")
	def = strings.TrimSpace(segment[colon+1:])
	if !validDefinition(term, def) {
		return "", "", false
	}
	return term, def, true
}

func validDefinition(term, def string) bool {
	tl := utf8.RuneCountInString(term)
	return tl >= minTermChars && tl <= maxTermChars && utf8.RuneCountInString(def) >= minDefChars
}
