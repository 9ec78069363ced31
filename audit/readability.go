package audit

import (
	"strings"
	"unicode/utf8"
)

// frameworkFingerprints is checked in order; the first framework with a
// matching marker wins.
var frameworkFingerprints = []struct {
	framework Framework
	markers   []string
}{
	{FrameworkReact, []string{"react"}},
	{FrameworkVue, []string{"vue"}},
	{FrameworkAngular, []string{"angular", "ng-"}},
}

// CheckLLMReadability measures inline script volume against body text and
// looks for framework fingerprints in the raw markup.
func CheckLLMReadability(rawHTML string, doc Document) LLMReadability {
	result := LLMReadability{
		FrameworkName: DetectFramework(rawHTML),
	}

	for _, script := range doc.SelectAll("script") {
		result.ScriptContentLength += utf8.RuneCountInString(script.Text())
	}

	if body, ok := doc.SelectFirst("body"); ok {
		result.TextContentLength = utf8.RuneCountInString(strings.TrimSpace(body.Text()))
	}

	return result
}

// DetectFramework returns the first framework whose marker occurs anywhere in
// rawHTML, ignoring case. Priority is React, Vue, Angular.
func DetectFramework(rawHTML string) Framework {
	lower := strings.ToLower(rawHTML)
	for _, fp := range frameworkFingerprints {
		for _, marker := range fp.markers {
			if strings.Contains(lower, marker) {
				return fp.framework
			}
		}
	}
	return FrameworkNone
}
