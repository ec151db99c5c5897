package conversation

import (
	"strings"

	"github.com/mandry-ai/server/internal/advisor/model"
)

// endPhrases close the conversation from the Q&A step. Matching is
// case-insensitive containment against the incoming message.
var endPhrases = []string{
	"goodbye",
	"thank you",
	"bye",
	"exit",
	"quit",
	"that's all",
	"thanks",
}

func isEndPhrase(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range endPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// fieldQuestion describes the next profile area to ask about. The anchor
// phrase must appear in whatever question is ultimately asked so the
// extractor can route a one-word answer back to the right field.
type fieldQuestion struct {
	area     string
	anchor   string
	fallback string
}

// nextQuestion picks the most specific unmet profile area. The ordering is
// fixed (nationality, visa type, current location, destination country,
// additional details) and total: it always yields exactly one question.
func nextQuestion(profile *model.Profile) fieldQuestion {
	switch {
	case profile.Nationality == "":
		return fieldQuestion{
			area:     "nationality",
			anchor:   "nationality",
			fallback: "What is your nationality?",
		}
	case profile.VisaIntent == "":
		return fieldQuestion{
			area:     "visa_intent",
			anchor:   "visa type",
			fallback: "What type of visa are you interested in?",
		}
	case profile.CurrentLocation == "":
		return fieldQuestion{
			area:     "current_location",
			anchor:   "currently residing",
			fallback: "Where are you currently residing?",
		}
	case profile.DestinationCountry == "":
		return fieldQuestion{
			area:     "destination_country",
			anchor:   "destination country",
			fallback: "Which destination country are you planning to move to?",
		}
	default:
		return fieldQuestion{
			area:     "additional_details",
			anchor:   "",
			fallback: "Could you share any additional details about your situation, such as your timeline or background?",
		}
	}
}
