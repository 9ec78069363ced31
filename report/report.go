// Package report turns audit reports into verdicts, advice and printable
// output.
package report

import (
	"github.com/seo-optimizer/llm-audit/audit"
)

// Band is a score range with its display colour and summary line.
type Band struct {
	Name    string
	Color   string
	Summary string
}

var (
	BandExcellent = Band{Name: "excellent", Color: "#10b981", Summary: "Excellent! Your site is well-optimized."}
	BandGood      = Band{Name: "good", Color: "#f59e0b", Summary: "Good, but there's room for improvement."}
	BandPoor      = Band{Name: "poor", Color: "#ef4444", Summary: "Needs work. Follow the recommendations below."}
)

// BandFor returns the band containing score.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	default:
		return BandPoor
	}
}

// Status is the verdict shown next to a single check.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusBad     Status = "bad"
)

// checkStatus is good when optimal, a warning when merely present.
func checkStatus(optimal, exists bool) Status {
	switch {
	case optimal:
		return StatusGood
	case exists:
		return StatusWarning
	default:
		return StatusBad
	}
}

// Severity orders recommendations.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Recommendation is one piece of advice derived from a report.
type Recommendation struct {
	Check    string   `json:"check" yaml:"check"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Recommendations returns advice for every check that needs attention, in
// report order. A LLM-friendly page also gets an info note saying so.
func Recommendations(r audit.Report) []Recommendation {
	var recs []Recommendation
	add := func(check string, sev Severity, msg string) {
		recs = append(recs, Recommendation{Check: check, Severity: sev, Message: msg})
	}

	basic := r.BasicSEO
	if !basic.Title.Exists {
		add("title", SeverityCritical, "Missing title tag - Add one immediately!")
	}
	if !basic.MetaDescription.Exists {
		add("metaDescription", SeverityCritical, "Missing meta description - Add one to improve click-through rates!")
	}
	if !basic.H1.Exists() {
		add("h1", SeverityCritical, "Missing H1 tag - Add a clear main heading!")
	}
	if !basic.H2.Optimal() {
		add("h2", SeverityWarning, "Add more H2 headings to structure your content better")
	}

	if r.LLMReadability.LLMFriendly() {
		add("llmReadability", SeverityInfo, "Great! Your content is readily accessible to AI crawlers and LLMs.")
	} else {
		add("llmReadability", SeverityWarning,
			"Your site appears to be JavaScript-heavy. AI crawlers may have difficulty reading your content. "+
				"Consider implementing server-side rendering (SSR) or static site generation (SSG).")
	}

	sd := r.StructuredData
	if !sd.JSONLD.Exists() {
		add("jsonLd", SeverityCritical, "No JSON-LD structured data found. Add schema markup to help search engines understand your content!")
	}
	if !sd.OpenGraph.Exists() {
		add("openGraph", SeverityCritical, "Add Open Graph tags for better social media sharing")
	}
	if !sd.TwitterCards.Exists() {
		add("twitterCards", SeverityWarning, "Consider adding Twitter Card tags for better Twitter sharing")
	}

	return recs
}
