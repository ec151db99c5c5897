package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// maxInsights bounds the growth of the conversation insights field.
const maxInsights = 5

const insightSeparator = "\n• "

// Profile is the durable record of what is known about a user's situation.
// Core scalar fields are write-once: extraction never overwrites a non-empty
// value, only explicit profile-edit operations outside the engine may.
type Profile struct {
	UserID               string            `json:"user_id"`
	Nationality          string            `json:"nationality"`
	CurrentLocation      string            `json:"current_location"`
	DestinationCountry   string            `json:"destination_country"`
	VisaIntent           string            `json:"visa_intent"`
	StructuredData       map[string]string `json:"structured_data"`
	ProfileContext       string            `json:"profile_context"`
	ConversationInsights string            `json:"conversation_insights"`
	ContextSufficient    bool              `json:"context_sufficient"`
	MissingContext       []string          `json:"missing_context"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	LastAssessedAt       time.Time         `json:"last_assessed_at"`
}

// NewProfile creates an empty profile for the given user.
func NewProfile(userID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:         userID,
		StructuredData: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasAdditionalContext reports whether any of the free-form context fields
// carries information beyond the four core scalars.
func (p *Profile) HasAdditionalContext() bool {
	return p.ProfileContext != "" || len(p.StructuredData) > 0 || p.ConversationInsights != ""
}

// Completeness scores the profile in [0,100]: nationality and visa intent
// weigh 25 each, current location and destination 15 each, and any
// additional context adds 20.
func (p *Profile) Completeness() int {
	score := 0
	if p.Nationality != "" {
		score += 25
	}
	if p.VisaIntent != "" {
		score += 25
	}
	if p.CurrentLocation != "" {
		score += 15
	}
	if p.DestinationCountry != "" {
		score += 15
	}
	if p.HasAdditionalContext() {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

// IsComplete gates the transition out of context gathering: all four core
// scalar fields must be set and at least one additional-context field
// populated. The percentage score is advisory only.
func (p *Profile) IsComplete() bool {
	return p.Nationality != "" &&
		p.VisaIntent != "" &&
		p.CurrentLocation != "" &&
		p.DestinationCountry != "" &&
		p.HasAdditionalContext()
}

// MissingAreas lists the unmet profile areas in the fixed question order.
func (p *Profile) MissingAreas() []string {
	var areas []string
	if p.Nationality == "" {
		areas = append(areas, "nationality")
	}
	if p.VisaIntent == "" {
		areas = append(areas, "visa_intent")
	}
	if p.CurrentLocation == "" {
		areas = append(areas, "current_location")
	}
	if p.DestinationCountry == "" {
		areas = append(areas, "destination_country")
	}
	if !p.HasAdditionalContext() {
		areas = append(areas, "additional_details")
	}
	return areas
}

// CoreContext renders the four core scalar fields as a single sentence for
// user-facing acknowledgements.
func (p *Profile) CoreContext() string {
	var parts []string
	if p.Nationality != "" {
		parts = append(parts, fmt.Sprintf("%s national", p.Nationality))
	}
	if p.CurrentLocation != "" {
		parts = append(parts, fmt.Sprintf("currently in %s", p.CurrentLocation))
	}
	if p.DestinationCountry != "" {
		parts = append(parts, fmt.Sprintf("heading to %s", p.DestinationCountry))
	}
	if p.VisaIntent != "" {
		parts = append(parts, fmt.Sprintf("pursuing a %s", p.VisaIntent))
	}
	if len(parts) == 0 {
		return "no situation details yet"
	}
	return strings.Join(parts, ", ")
}

// ContextSummary renders everything known about the user for prompt
// construction, one labelled line per populated field.
func (p *Profile) ContextSummary() string {
	var b strings.Builder
	writeLine := func(label, value string) {
		if value != "" {
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\n")
		}
	}
	writeLine("Nationality", p.Nationality)
	writeLine("Current location", p.CurrentLocation)
	writeLine("Destination country", p.DestinationCountry)
	writeLine("Visa intent", p.VisaIntent)
	writeLine("Situation", p.ProfileContext)
	if len(p.StructuredData) > 0 {
		keys := make([]string, 0, len(p.StructuredData))
		for k := range p.StructuredData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+p.StructuredData[k])
		}
		writeLine("Details", strings.Join(pairs, ", "))
	}
	writeLine("Insights", p.ConversationInsights)
	if b.Len() == 0 {
		return "No information gathered yet."
	}
	return strings.TrimRight(b.String(), "\n")
}

// AddStructuredData stores an open-ended key/value fact.
func (p *Profile) AddStructuredData(key, value string) bool {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return false
	}
	if p.StructuredData == nil {
		p.StructuredData = map[string]string{}
	}
	if existing, ok := p.StructuredData[key]; ok && existing == value {
		return false
	}
	p.StructuredData[key] = value
	return true
}

// AddInsight appends a free-text insight unless it is already contained in
// the existing value, keeping only the most recent entries to bound growth.
func (p *Profile) AddInsight(insight string) bool {
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return false
	}
	if strings.Contains(p.ConversationInsights, insight) {
		return false
	}
	var entries []string
	if p.ConversationInsights != "" {
		entries = strings.Split(strings.TrimPrefix(p.ConversationInsights, "• "), insightSeparator)
	}
	entries = append(entries, insight)
	if len(entries) > maxInsights {
		entries = entries[len(entries)-maxInsights:]
	}
	p.ConversationInsights = "• " + strings.Join(entries, insightSeparator)
	return true
}

// AppendContext merges a free-text fragment into the situational narrative.
// The narrative is append-only, semicolon-joined and deduplicated by
// substring containment.
func (p *Profile) AppendContext(fragment string) bool {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return false
	}
	if p.ProfileContext == "" {
		p.ProfileContext = fragment
		return true
	}
	if strings.Contains(p.ProfileContext, fragment) {
		return false
	}
	p.ProfileContext += "; " + fragment
	return true
}
