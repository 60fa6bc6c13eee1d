package advisor

import "strings"

// SymptomMatch is a catalog entry hit by an observed symptom.
type SymptomMatch struct {
	Symptom   string `json:"symptom"`
	Label     string `json:"label"`
	Treatment string `json:"treatment"`
}

// SymptomReport is the outcome of a symptom check.
type SymptomReport struct {
	Symptoms       string         `json:"symptoms,omitempty"`
	Status         string         `json:"status,omitempty"`
	Matches        []SymptomMatch `json:"matches,omitempty"`
	Recommendation string         `json:"recommendation"`
}

// StatusNoMatches is reported when no catalog symptom matched.
const StatusNoMatches = "No matches found"

// splitSymptoms turns a comma-separated list into trimmed lowercase tokens.
// Empty tokens are dropped; an empty token would otherwise match every key.
func splitSymptoms(csv string) []string {
	parts := strings.Split(csv, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// matchSymptoms returns catalog entries, in catalog order, whose key contains
// at least one of the observed tokens. The token must be a substring of the
// key, not the other way around.
func matchSymptoms(catalog []SymptomRecord, csv string) []SymptomMatch {
	tokens := splitSymptoms(csv)
	var matches []SymptomMatch
	for _, rec := range catalog {
		for _, tok := range tokens {
			if strings.Contains(rec.Symptom, tok) {
				matches = append(matches, SymptomMatch{
					Symptom:   rec.Symptom,
					Label:     rec.Label,
					Treatment: rec.Treatment,
				})
				break
			}
		}
	}
	return matches
}
