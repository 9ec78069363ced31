package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/llm-audit/audit"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the formats Render accepts.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Render writes r to w in format.
func Render(w io.Writer, r audit.Report, format string) error {
	switch format {
	case FormatText, "":
		return renderText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		return renderYAML(w, r)
	default:
		return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(Formats, ", "))
	}
}

// renderYAML goes through the JSON encoding so keys and derived fields match
// the API exactly.
func renderYAML(w io.Writer, r audit.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("convert report: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles that JSON input produces.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

var statusMarks = map[Status]string{
	StatusGood:    "[ok]",
	StatusWarning: "[!!]",
	StatusBad:     "[xx]",
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) check(status Status, name string) {
	t.printf("  %s %s\n", statusMarks[status], name)
}

func renderText(w io.Writer, r audit.Report) error {
	t := &textWriter{w: w}
	band := BandFor(r.OverallScore)

	t.printf("URL: %s\n", r.URL)
	t.printf("Overall score: %d/%d (%s)\n", r.OverallScore, audit.MaxScore, band.Name)
	t.printf("%s\n\n", band.Summary)

	basic := r.BasicSEO
	t.printf("Basic SEO\n")
	t.check(checkStatus(basic.Title.Optimal(), basic.Title.Exists), "Title Tag")
	if basic.Title.Exists {
		t.printf("      %q\n", basic.Title.Content)
		t.printf("      Length: %d characters (Optimal: %d-%d)\n", basic.Title.Length(), audit.TitleMinLength, audit.TitleMaxLength)
	}
	t.check(checkStatus(basic.MetaDescription.Optimal(), basic.MetaDescription.Exists), "Meta Description")
	if basic.MetaDescription.Exists {
		t.printf("      %q\n", basic.MetaDescription.Content)
		t.printf("      Length: %d characters (Optimal: %d-%d)\n", basic.MetaDescription.Length(), audit.MetaDescriptionMinLength, audit.MetaDescriptionMaxLength)
	}
	t.check(checkStatus(basic.H1.Optimal(), basic.H1.Exists()), "H1 Heading")
	if basic.H1.Exists() {
		t.printf("      %q\n", basic.H1.Content)
		t.printf("      Count: %d (Should have exactly 1)\n", basic.H1.Count)
	}
	t.check(checkStatus(basic.H2.Optimal(), basic.H2.Exists()), "H2 Headings")
	t.printf("      Count: %d (Recommended: %d+)\n\n", basic.H2.Count, audit.MinH2Count)

	llm := r.LLMReadability
	t.printf("LLM Readability\n")
	t.check(checkStatus(llm.LLMFriendly(), true), "Assessment: "+llm.Assessment())
	t.printf("      Text Content: %d characters\n", llm.TextContentLength)
	t.printf("      Script Content: %d characters\n", llm.ScriptContentLength)
	t.printf("      Script/Text Ratio: %s\n", llm.Ratio())
	t.printf("      JS Framework: %s\n\n", llm.FrameworkName)

	sd := r.StructuredData
	t.printf("Structured Data (%s)\n", sd.OverallAssessment())
	t.check(checkStatus(sd.JSONLD.Exists(), false), "JSON-LD Schema")
	t.printf("      Found %d schema(s)\n", sd.JSONLD.Count)
	if len(sd.JSONLD.Types) > 0 {
		types := make([]string, len(sd.JSONLD.Types))
		for i, typ := range sd.JSONLD.Types {
			types[i] = fmt.Sprint(typ)
		}
		t.printf("      Types: %s\n", strings.Join(types, ", "))
	}
	t.check(checkStatus(sd.Microdata.Exists(), false), "Microdata")
	t.printf("      Found %d item(s)\n", sd.Microdata.Count)
	t.check(checkStatus(sd.OpenGraph.Exists(), false), "Open Graph Tags")
	t.printf("      Found %d tags\n", sd.OpenGraph.Count)
	t.check(checkStatus(sd.TwitterCards.Exists(), true), "Twitter Card Tags")
	t.printf("      Found %d tags\n", sd.TwitterCards.Count)

	if recs := Recommendations(r); len(recs) > 0 {
		t.printf("\nRecommendations\n")
		for _, rec := range recs {
			t.printf("  - [%s] %s\n", rec.Severity, rec.Message)
		}
	}

	return t.err
}
