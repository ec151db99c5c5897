package model

// Fixed key vocabulary the context extractor may populate. Anything outside
// this set is discarded before it reaches the profile updater.
const (
	KeyNationality        = "nationality"
	KeyVisaIntent         = "visa_intent"
	KeyCurrentLocation    = "current_location"
	KeyDestinationCountry = "destination_country"
	KeyTimeline           = "timeline"
	KeySpecificConcerns   = "specific_concerns"
	KeyBackground         = "background"
	KeyPurposeDetails     = "purpose_details"
	KeyDuration           = "duration"
	KeyPreviousExperience = "previous_experience"
)

// ExtractionKeys lists the vocabulary in a stable order, used for prompt
// construction and key filtering.
var ExtractionKeys = []string{
	KeyNationality,
	KeyVisaIntent,
	KeyCurrentLocation,
	KeyDestinationCountry,
	KeyTimeline,
	KeySpecificConcerns,
	KeyBackground,
	KeyPurposeDetails,
	KeyDuration,
	KeyPreviousExperience,
}

// narrativeKeys are the extraction keys folded into the profile_context
// narrative, in render order.
var narrativeKeys = []string{
	KeyTimeline,
	KeySpecificConcerns,
	KeyBackground,
	KeyPurposeDetails,
	KeyDuration,
	KeyPreviousExperience,
}

// Extraction is a bounded set of typed facts recognised in one message.
// An empty extraction is a valid, non-error result.
type Extraction map[string]string

// IsExtractionKey reports whether key belongs to the fixed vocabulary.
func IsExtractionKey(key string) bool {
	for _, k := range ExtractionKeys {
		if k == key {
			return true
		}
	}
	return false
}
