package audit

// MaxScore is the highest score a page can reach.
const MaxScore = 100

// Points awarded by Score.
const (
	pointsOptimal      = 10
	pointsPresent      = 5
	pointsLLMFriendly  = 30
	pointsLLMFallback  = 15
	pointsJSONLD       = 15
	pointsOpenGraph    = 10
	pointsTwitterCards = 5
)

// Score combines the three check results into a value between 0 and
// MaxScore.
//
//	basic SEO       40  title, description, h1, h2: 10 optimal, 5 present
//	readability     30  friendly, or 15 with more than 500 chars of text
//	structured data 30  JSON-LD 15, Open Graph 10, Twitter Cards 5
func Score(basic BasicSEO, llm LLMReadability, sd StructuredData) int {
	score := 0

	score += elementPoints(basic.Title.Optimal(), basic.Title.Exists)
	score += elementPoints(basic.MetaDescription.Optimal(), basic.MetaDescription.Exists)
	score += elementPoints(basic.H1.Optimal(), basic.H1.Exists())
	score += elementPoints(basic.H2.Optimal(), basic.H2.Exists())

	if llm.LLMFriendly() {
		score += pointsLLMFriendly
	} else if llm.TextContentLength > FallbackTextLength {
		score += pointsLLMFallback
	}

	if sd.JSONLD.Exists() {
		score += pointsJSONLD
	}
	if sd.OpenGraph.Exists() {
		score += pointsOpenGraph
	}
	if sd.TwitterCards.Exists() {
		score += pointsTwitterCards
	}

	return score
}

func elementPoints(optimal, exists bool) int {
	switch {
	case optimal:
		return pointsOptimal
	case exists:
		return pointsPresent
	}
	return 0
}
