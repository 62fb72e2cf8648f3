package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iurisdata/boe-ingest/internal/boe"
)

func TestParseArticleWithDefinition(t *testing.T) {
	markup := []byte(`<div class="articulo"><h5>Artículo 3 bis. Definiciones</h5>` +
		`<p>a) Dato: cualquier información.</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-2015-10566", Title: "Ley 39/2015"})

	require.Len(t, doc.Provisions, 1)
	p := doc.Provisions[0]
	require.Equal(t, "art3bis", p.Ref)
	require.Equal(t, "Artículo 3 bis. Definiciones", p.Label)
	require.Equal(t, "Definiciones", p.Heading)
	require.Equal(t, "a) Dato: cualquier información.", p.Text)

	require.Len(t, doc.Definitions, 1)
	d := doc.Definitions[0]
	require.Equal(t, "Dato", d.Term)
	require.Equal(t, "cualquier información.", d.Text)
	require.Equal(t, "art3bis", d.SourceRef)
}

func TestParseIdempotent(t *testing.T) {
	markup := []byte(`<div class="articulo"><h5>Artículo 1. Objeto</h5>` +
		`<p>Esta ley tiene por objeto regular los requisitos.</p></div>` +
		`<div class="articulo"><h5>Artículo 2. Definiciones</h5>` +
		`<p>a) Usuario: toda persona física que utilice el servicio.</p></div>`)
	meta := ItemMeta{ID: "BOE-A-2000-1", Title: "Ley 1/2000"}

	first := Parse(markup, meta)
	second := Parse(markup, meta)
	require.Equal(t, first, second)
}

func TestParseTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("palabra ", 3000) // well over the cap
	markup := []byte(`<div class="articulo"><h5>Artículo 12.</h5><p>` + long + `</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-1990-2"})

	require.Len(t, doc.Provisions, 1)
	require.LessOrEqual(t, len([]rune(doc.Provisions[0].Text)), MaxBodyChars)
}

func TestParseDiscardsNoiseBodies(t *testing.T) {
	markup := []byte(`<div class="articulo"><h5>Artículo 7.</h5><p>No.</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-1990-3"})
	require.Empty(t, doc.Provisions)
}

func TestParseDiscardsHeadingsWithoutOrdinal(t *testing.T) {
	markup := []byte(`<div class="articulo"><h5>Disposición adicional primera.</h5>` +
		`<p>El Gobierno dictará las normas de desarrollo.</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-1990-4"})
	require.Empty(t, doc.Provisions)
}

func TestDeriveRef(t *testing.T) {
	cases := []struct {
		ordinal string
		want    string
	}{
		{"3 bis", "art3bis"},
		{"3bis", "art3bis"},
		{"10", "art10"},
		{"5 Quáter", "art5quater"},
		{"128 nonies", "art128nonies"},
	}
	for _, tc := range cases {
		t.Run(tc.ordinal, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveRef(tc.ordinal))
			// Stable under repetition.
			require.Equal(t, DeriveRef(tc.ordinal), DeriveRef(tc.ordinal))
		})
	}
}

func TestDeriveRefDistinctOrdinals(t *testing.T) {
	ordinals := []string{"1", "2", "2 bis", "2 ter", "12", "21"}
	seen := make(map[string]string)
	for _, o := range ordinals {
		key := DeriveRef(o)
		prev, dup := seen[key]
		require.False(t, dup, "ordinals %q and %q collided on %q", prev, o, key)
		seen[key] = o
	}
}

func TestParseLegacyLayout(t *testing.T) {
	markup := []byte(`<html><body>` +
		`<h4>Artículo 1. Objeto</h4>` +
		`<p>La presente Ley regula el régimen jurídico aplicable.</p>` +
		`<h4>Artículo 2 bis. Ámbito de aplicación</h4>` +
		`<p>Se aplica a todas las entidades del sector público.</p>` +
		`</body></html>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-1964-5"})

	require.Len(t, doc.Provisions, 2)
	require.Equal(t, "art1", doc.Provisions[0].Ref)
	require.Equal(t, "La presente Ley regula el régimen jurídico aplicable.", doc.Provisions[0].Text)
	require.Equal(t, "art2bis", doc.Provisions[1].Ref)
	require.Equal(t, "Ámbito de aplicación", doc.Provisions[1].Heading)
}

func TestParseChapterAttribution(t *testing.T) {
	markup := []byte(`<h3>CAPÍTULO II. Derechos de las personas</h3>` +
		`<div class="articulo"><h5>Artículo 13. Derechos</h5>` +
		`<p>Quienes tengan capacidad de obrar ante las Administraciones.</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-2015-10565"})

	require.Len(t, doc.Provisions, 1)
	require.Contains(t, doc.Provisions[0].Chapter, "CAPÍTULO II")
}

func TestParseChapterOutsideWindow(t *testing.T) {
	// Push the chapter heading out of the backward-scan window; the
	// provision then carries no chapter context.
	filler := strings.Repeat("<p>relleno</p>", 2000)
	markup := []byte(`<h3>CAPÍTULO I. Disposiciones generales</h3>` + filler +
		`<div class="articulo"><h5>Artículo 90. Cierre</h5>` +
		`<p>El procedimiento terminará mediante resolución expresa.</p></div>`)

	doc := Parse(markup, ItemMeta{ID: "BOE-A-2015-10567"})

	require.Len(t, doc.Provisions, 1)
	require.Empty(t, doc.Provisions[0].Chapter)
}

func TestParseEmptyOrBrokenMarkup(t *testing.T) {
	for _, markup := range []string{"", "<div", "plain text without structure"} {
		doc := Parse([]byte(markup), ItemMeta{ID: "BOE-A-1900-9"})
		require.NotNil(t, doc)
		require.Empty(t, doc.Provisions)
		require.Empty(t, doc.Definitions)
	}
}

func TestParseRepeatedArticleNumbersKeepDocumentOrder(t *testing.T) {
	// Two blocks with the same ordinal: both survive, same ref key.
	var b strings.Builder
	for i := 0; i < 2; i++ {
		fmt.Fprintf(&b, `<div class="articulo"><h5>Artículo 4. Título %d</h5>`, i+1)
		b.WriteString(`<p>Contenido suficientemente largo del artículo repetido.</p></div>`)
	}

	doc := Parse([]byte(b.String()), ItemMeta{ID: "BOE-A-1980-1"})
	require.Len(t, doc.Provisions, 2)
	require.Equal(t, "art4", doc.Provisions[0].Ref)
	require.Equal(t, "art4", doc.Provisions[1].Ref)
}

func TestParseInitializesEmptySlices(t *testing.T) {
	doc := Parse([]byte("<html></html>"), ItemMeta{ID: "BOE-A-1900-1"})
	// Seed records must serialize provisions/definitions as [], not null.
	require.NotNil(t, doc.Provisions)
	require.NotNil(t, doc.Definitions)
	require.IsType(t, []boe.Provision{}, doc.Provisions)
}
