// Package audit scores how readable a single page is for search crawlers and
// LLM consumers that do not run JavaScript.
//
// Every function in this package is pure. Callers fetch and parse the page and
// pass both the raw markup and a Document built from it.
package audit

import "errors"

// ErrNilDocument is returned by Run when no parsed document is supplied.
var ErrNilDocument = errors.New("audit: nil document")

// Run audits one page and returns its report.
func Run(url, rawHTML string, doc Document) (Report, error) {
	if doc == nil {
		return Report{}, ErrNilDocument
	}

	report := Report{
		URL:            url,
		BasicSEO:       CheckBasicSEO(doc),
		LLMReadability: CheckLLMReadability(rawHTML, doc),
		StructuredData: CheckStructuredData(doc),
	}
	report.OverallScore = Score(report.BasicSEO, report.LLMReadability, report.StructuredData)

	return report, nil
}
