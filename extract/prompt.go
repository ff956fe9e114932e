package extract

import "strings"

// DefaultPrompt asks the model for a single flat JSON object.
// The article text replaces the {{article}} placeholder.
const DefaultPrompt = `Given the following article, analyze and return a JSON object with exactly these keys:
- tone: one word describing the overall tone (for example "positive", "neutral", "negative")
- sentiment_score: a number between -1.0 (very negative) and 1.0 (very positive)
- keywords: list of strings
- topics: list of strings
- people: list of strings
- organizations: list of strings
- locations: list of strings

Return only the JSON object, with no commentary.

Article:
{{article}}
`

const articlePlaceholder = "{{article}}"

func renderPrompt(template, text string) string {
	if !strings.Contains(template, articlePlaceholder) {
		return template + "\n\nArticle:\n" + text + "\n"
	}
	return strings.ReplaceAll(template, articlePlaceholder, text)
}
