package model

import (
	"strings"
	"time"
)

// ApplyExtraction merges recognised facts into the profile and reports
// whether anything changed, so callers can skip the persistence write (and
// the updated_at churn) on a no-op turn.
//
// Core scalar fields follow first-write-wins: a populated field is never
// overwritten by extraction.
func ApplyExtraction(p *Profile, ex Extraction) bool {
	if p == nil || len(ex) == 0 {
		return false
	}

	updated := false
	setIfEmpty := func(field *string, key string) {
		if *field != "" {
			return
		}
		if v := strings.TrimSpace(ex[key]); v != "" {
			*field = v
			updated = true
		}
	}
	setIfEmpty(&p.Nationality, KeyNationality)
	setIfEmpty(&p.CurrentLocation, KeyCurrentLocation)
	setIfEmpty(&p.DestinationCountry, KeyDestinationCountry)
	setIfEmpty(&p.VisaIntent, KeyVisaIntent)

	for _, key := range []string{KeyTimeline, KeySpecificConcerns} {
		if v := strings.TrimSpace(ex[key]); v != "" {
			if p.AddInsight(v) {
				updated = true
			}
		}
	}

	if fragment := narrativeFragment(ex); fragment != "" {
		if p.AppendContext(fragment) {
			updated = true
		}
	}

	if updated {
		p.UpdatedAt = time.Now().UTC()
	}
	return updated
}

// narrativeFragment rebuilds the semicolon-joined situational fragment from
// the narrative extraction keys.
func narrativeFragment(ex Extraction) string {
	var parts []string
	for _, key := range narrativeKeys {
		if v := strings.TrimSpace(ex[key]); v != "" {
			parts = append(parts, strings.ReplaceAll(key, "_", " ")+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}
