package audit

import (
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"
)

// Length bounds used by the basic checks.
const (
	TitleMinLength           = 30
	TitleMaxLength           = 60
	MetaDescriptionMinLength = 120
	MetaDescriptionMaxLength = 160
	MinH2Count               = 2

	// FriendlyTextLength is the body text length above which a page that is
	// not script heavy counts as LLM friendly.
	FriendlyTextLength = 1000
	// FallbackTextLength earns partial readability credit for pages that
	// are not LLM friendly.
	FallbackTextLength = 500
)

// Report is the complete result of auditing one page.
type Report struct {
	URL            string         `json:"url"`
	BasicSEO       BasicSEO       `json:"basicSEO"`
	LLMReadability LLMReadability `json:"llmReadability"`
	StructuredData StructuredData `json:"structuredData"`
	OverallScore   int            `json:"overallScore"`
}

// BasicSEO groups the title, description and heading checks.
type BasicSEO struct {
	Title           TitleCheck           `json:"title"`
	MetaDescription MetaDescriptionCheck `json:"metaDescription"`
	H1              H1Check              `json:"h1"`
	H2              H2Check              `json:"h2"`
}

// TitleCheck describes the first <title> element.
type TitleCheck struct {
	Exists  bool   `json:"exists"`
	Content string `json:"content"`
}

// Length returns the number of characters in the title.
func (c TitleCheck) Length() int { return utf8.RuneCountInString(c.Content) }

// Optimal reports whether the title length is within bounds.
func (c TitleCheck) Optimal() bool {
	return c.Exists && inRange(c.Length(), TitleMinLength, TitleMaxLength)
}

func (c TitleCheck) MarshalJSON() ([]byte, error) {
	type plain TitleCheck
	return json.Marshal(struct {
		plain
		Length  int  `json:"length"`
		Optimal bool `json:"optimal"`
	}{plain(c), c.Length(), c.Optimal()})
}

// MetaDescriptionCheck describes the first <meta name="description">.
type MetaDescriptionCheck struct {
	Exists  bool   `json:"exists"`
	Content string `json:"content"`
}

// Length returns the number of characters in the description content.
func (c MetaDescriptionCheck) Length() int { return utf8.RuneCountInString(c.Content) }

// Optimal reports whether the description length is within bounds.
func (c MetaDescriptionCheck) Optimal() bool {
	return c.Exists && inRange(c.Length(), MetaDescriptionMinLength, MetaDescriptionMaxLength)
}

func (c MetaDescriptionCheck) MarshalJSON() ([]byte, error) {
	type plain MetaDescriptionCheck
	return json.Marshal(struct {
		plain
		Length  int  `json:"length"`
		Optimal bool `json:"optimal"`
	}{plain(c), c.Length(), c.Optimal()})
}

// H1Check counts <h1> elements and keeps the text of the first.
type H1Check struct {
	Count   int    `json:"count"`
	Content string `json:"content"`
}

func (c H1Check) Exists() bool { return c.Count > 0 }

// Optimal reports whether the page has exactly one <h1>.
func (c H1Check) Optimal() bool { return c.Count == 1 }

func (c H1Check) MarshalJSON() ([]byte, error) {
	type plain H1Check
	return json.Marshal(struct {
		Exists bool `json:"exists"`
		plain
		Optimal bool `json:"optimal"`
	}{c.Exists(), plain(c), c.Optimal()})
}

// H2Check counts <h2> elements.
type H2Check struct {
	Count int `json:"count"`
}

func (c H2Check) Exists() bool { return c.Count > 0 }

// Optimal reports whether the page has at least MinH2Count <h2> elements.
func (c H2Check) Optimal() bool { return c.Count >= MinH2Count }

func (c H2Check) MarshalJSON() ([]byte, error) {
	type plain H2Check
	return json.Marshal(struct {
		Exists bool `json:"exists"`
		plain
		Optimal bool `json:"optimal"`
	}{c.Exists(), plain(c), c.Optimal()})
}

// Framework is a client-side framework recognised in the raw markup.
type Framework string

const (
	FrameworkReact   Framework = "React"
	FrameworkVue     Framework = "Vue"
	FrameworkAngular Framework = "Angular"
	FrameworkNone    Framework = "None"
)

// Assessment values for LLMReadability.
const (
	AssessmentJSHeavy  = "JS-Heavy (Potential LLM Issues)"
	AssessmentHTMLRich = "HTML-Rich (LLM-Friendly)"
)

// RatioNotAvailable is the ratio reported for pages without body text.
const RatioNotAvailable = "N/A"

// LLMReadability compares inline script volume with visible text.
//
// The ratio is a heuristic for pages that need JavaScript to show their
// content. It does not render the page and can be wrong for sites that load
// scripts from external files.
type LLMReadability struct {
	TextContentLength   int       `json:"textContentLength"`
	ScriptContentLength int       `json:"scriptContentLength"`
	FrameworkName       Framework `json:"frameworkName"`
}

// Ratio returns script/text length with two fraction digits, or
// RatioNotAvailable when there is no text. Halves round away from zero, so
// 1/8 is "0.13".
func (r LLMReadability) Ratio() string {
	if r.TextContentLength <= 0 {
		return RatioNotAvailable
	}
	ratio := float64(r.ScriptContentLength) / float64(r.TextContentLength)
	return strconv.FormatFloat(math.Round(ratio*100)/100, 'f', 2, 64)
}

// JSFrameworkDetected reports whether any known framework was found.
func (r LLMReadability) JSFrameworkDetected() bool {
	return r.FrameworkName != "" && r.FrameworkName != FrameworkNone
}

// JSHeavy reports whether script content exceeds half of the text content.
func (r LLMReadability) JSHeavy() bool {
	return float64(r.ScriptContentLength) > float64(r.TextContentLength)*0.5
}

func (r LLMReadability) Assessment() string {
	if r.JSHeavy() {
		return AssessmentJSHeavy
	}
	return AssessmentHTMLRich
}

// LLMFriendly reports whether the page is not script heavy and carries more
// than FriendlyTextLength characters of text.
func (r LLMReadability) LLMFriendly() bool {
	return !r.JSHeavy() && r.TextContentLength > FriendlyTextLength
}

func (r LLMReadability) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TextContentLength   int       `json:"textContentLength"`
		ScriptContentLength int       `json:"scriptContentLength"`
		Ratio               string    `json:"ratio"`
		JSFrameworkDetected bool      `json:"jsFrameworkDetected"`
		FrameworkName       Framework `json:"frameworkName"`
		Assessment          string    `json:"assessment"`
		LLMFriendly         bool      `json:"llmFriendly"`
	}{
		TextContentLength:   r.TextContentLength,
		ScriptContentLength: r.ScriptContentLength,
		Ratio:               r.Ratio(),
		JSFrameworkDetected: r.JSFrameworkDetected(),
		FrameworkName:       r.FrameworkName,
		Assessment:          r.Assessment(),
		LLMFriendly:         r.LLMFriendly(),
	})
}

// Structured data assessments.
const (
	AssessmentGood    = "Good"
	AssessmentMissing = "Missing"
)

// StructuredData counts machine-readable markup on the page.
type StructuredData struct {
	JSONLD       JSONLD      `json:"jsonLd"`
	Microdata    MarkupCount `json:"microdata"`
	OpenGraph    MarkupCount `json:"openGraph"`
	TwitterCards MarkupCount `json:"twitterCards"`
}

// OverallAssessment is Good when the page has JSON-LD or microdata.
func (s StructuredData) OverallAssessment() string {
	if s.JSONLD.Exists() || s.Microdata.Exists() {
		return AssessmentGood
	}
	return AssessmentMissing
}

func (s StructuredData) MarshalJSON() ([]byte, error) {
	type plain StructuredData
	return json.Marshal(struct {
		plain
		OverallAssessment string `json:"overallAssessment"`
	}{plain(s), s.OverallAssessment()})
}

// JSONLD counts application/ld+json blocks. Types holds the @type value of
// every block that parsed, in document order.
type JSONLD struct {
	Count int   `json:"count"`
	Types []any `json:"types"`
}

func (j JSONLD) Exists() bool { return j.Count > 0 }

func (j JSONLD) MarshalJSON() ([]byte, error) {
	types := j.Types
	if types == nil {
		types = []any{}
	}
	return json.Marshal(struct {
		Exists bool  `json:"exists"`
		Count  int   `json:"count"`
		Types  []any `json:"types"`
	}{j.Exists(), j.Count, types})
}

// MarkupCount is the number of elements carrying one kind of markup.
type MarkupCount struct {
	Count int `json:"count"`
}

func (m MarkupCount) Exists() bool { return m.Count > 0 }

func (m MarkupCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Exists bool `json:"exists"`
		Count  int  `json:"count"`
	}{m.Exists(), m.Count})
}

func inRange(n, lo, hi int) bool {
	return n >= lo && n <= hi
}
