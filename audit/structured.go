package audit

import "encoding/json"

// CheckStructuredData counts JSON-LD, microdata, Open Graph and Twitter Card
// markup. JSON-LD blocks that fail to parse are counted but contribute no
// type.
func CheckStructuredData(doc Document) StructuredData {
	scripts := doc.SelectAll(`script[type="application/ld+json"]`)

	result := StructuredData{
		JSONLD: JSONLD{
			Count: len(scripts),
			Types: make([]any, 0, len(scripts)),
		},
		Microdata:    MarkupCount{Count: len(doc.SelectAll("[itemscope]"))},
		OpenGraph:    MarkupCount{Count: len(doc.SelectAll(`meta[property^="og:"]`))},
		TwitterCards: MarkupCount{Count: len(doc.SelectAll(`meta[name^="twitter:"]`))},
	}

	for _, script := range scripts {
		if t, ok := schemaType(script.Text()); ok {
			result.JSONLD.Types = append(result.JSONLD.Types, t)
		}
	}

	return result
}

// schemaType decodes a JSON-LD payload and returns its top-level @type.
// Payloads that are not JSON objects, and @type values that are null, false,
// zero or empty, yield nothing.
func schemaType(payload string) (any, bool) {
	var data any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, false
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}

	t, ok := obj["@type"]
	if !ok || !truthy(t) {
		return nil, false
	}
	return t, true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	}
	return true
}
