package portal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Outcome is the soft classification of a portal response body. The portals
// return HTTP 200 for error pages, so the status code carries no signal;
// classification is phrase matching on the HTML text.
type Outcome string

// Classification outcomes.
const (
	OutcomeOK                Outcome = "ok"
	OutcomeInvalidEnrollment Outcome = "invalid_enrollment"
	OutcomeInvalidProgram    Outcome = "invalid_program"
	OutcomeNoRecords         Outcome = "no_records"
	OutcomeServerError       Outcome = "server_error"
)

// PhraseRule maps a set of phrases to an outcome. Rules are evaluated in
// order and the first rule with a matching phrase wins, so specific rules
// (invalid enrollment) must precede generic ones (server error).
type PhraseRule struct {
	Outcome Outcome  `json:"outcome"`
	Phrases []string `json:"phrases"`
}

// DefaultPhraseRules returns the built-in error vocabulary. The portal's
// exact wording has drifted over time; deployments can extend the list via
// a JSON file (see LoadPhraseRules) without a code change.
func DefaultPhraseRules() []PhraseRule {
	return []PhraseRule{
		{
			Outcome: OutcomeInvalidEnrollment,
			Phrases: []string{
				"invalid enrollment",
				"invalid enrolment",
				"enrollment number is not valid",
				"enrollment no. is not valid",
				"wrong enrollment",
			},
		},
		{
			Outcome: OutcomeInvalidProgram,
			Phrases: []string{
				"invalid programme",
				"invalid program",
				"programme code is not valid",
				"wrong programme",
			},
		},
		{
			Outcome: OutcomeNoRecords,
			Phrases: []string{
				"no record found",
				"no records found",
				"no data found",
				"data not found",
				"not found in our database",
			},
		},
		{
			Outcome: OutcomeServerError,
			Phrases: []string{
				"server error",
				"internal error",
				"runtime error",
				"an error occurred",
				"service unavailable",
			},
		},
	}
}

// LoadPhraseRules reads phrase rules from a JSON file:
//
//	[{"outcome": "invalid_enrollment", "phrases": ["..."]}, ...]
func LoadPhraseRules(path string) ([]PhraseRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read phrase rules: %w", err)
	}
	var rules []PhraseRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse phrase rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("phrase rules file %q is empty", path)
	}
	return rules, nil
}

// Classify scans the HTML for known error phrases, case-insensitively.
// No match means the page looks like a data page and extraction may proceed;
// it does not guarantee records exist.
func Classify(html string, rules []PhraseRule) Outcome {
	lower := strings.ToLower(html)
	for _, rule := range rules {
		for _, phrase := range rule.Phrases {
			if strings.Contains(lower, strings.ToLower(phrase)) {
				return rule.Outcome
			}
		}
	}
	return OutcomeOK
}
