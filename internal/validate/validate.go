package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"curiospace/internal/markdown"
	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeInvalidJSON           = "invalid_json"
	codeMissingSubject        = "missing_subject"
	codeMissingAxis           = "missing_axis"
	codeEmptyAxisLabel        = "empty_axis_label"
	codeManifestationsShape   = "manifestations_not_array"
	codeInvalidManifestation  = "invalid_manifestation"
	codeMissingName           = "missing_name"
	codeOutOfRange            = "coordinate_out_of_range"
	codeCoordinateCollision   = "coordinate_collision"
	codeDuplicateID           = "duplicate_id"
	codeHallucinationMismatch = "hallucination_mismatch"
	codeDuplicateName         = "duplicate_name"
	codeNonWebLink            = "non_web_link"
	codeParadoxNoExplanation  = "impossible_without_explanation"
	codeGeneratedFromCount    = "generated_from_count"
)

type Issue struct {
	Severity      Severity
	Code          string
	Message       string
	Manifestation string
	Field         string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// document decodes a snapshot without enforcing its shape so that every
// problem can be reported rather than only the first.
type document struct {
	Subject              *string         `json:"subject"`
	XAxis                *space.Axis     `json:"xAxis"`
	YAxis                *space.Axis     `json:"yAxis"`
	Manifestations       json.RawMessage `json:"manifestations"`
	SubjectGeneratedFrom []string        `json:"subjectGeneratedFrom"`
}

func RunFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Run(data), nil
}

// Run checks a snapshot for the problems a load would reject and for
// inconsistencies a load would accept silently.
func Run(data []byte) *Report {
	issues := make([]Issue, 0)

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeInvalidJSON,
			Message:  fmt.Sprintf("snapshot is not a JSON object: %v", err),
		})
		return &Report{Issues: issues}
	}

	if doc.Subject == nil || strings.TrimSpace(*doc.Subject) == "" {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeMissingSubject, Message: "missing subject", Field: "subject"})
	}
	issues = append(issues, validateAxis("xAxis", doc.XAxis)...)
	issues = append(issues, validateAxis("yAxis", doc.YAxis)...)

	if doc.SubjectGeneratedFrom != nil && len(doc.SubjectGeneratedFrom) != protocol.SeedItemCount {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeGeneratedFromCount,
			Message:  fmt.Sprintf("subjectGeneratedFrom has %d items, expected %d", len(doc.SubjectGeneratedFrom), protocol.SeedItemCount),
			Field:    "subjectGeneratedFrom",
		})
	}

	raw := bytes.TrimSpace(doc.Manifestations)
	if len(raw) == 0 || raw[0] != '[' {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeManifestationsShape,
			Message:  "manifestations must be an array",
			Field:    "manifestations",
		})
		return &Report{Issues: issues}
	}
	var manifestations []space.Manifestation
	if err := json.Unmarshal(raw, &manifestations); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeInvalidManifestation,
			Message:  fmt.Sprintf("manifestations could not be decoded: %v", err),
			Field:    "manifestations",
		})
		return &Report{Issues: issues}
	}
	issues = append(issues, validateManifestations(manifestations)...)

	return &Report{Issues: issues}
}

func validateAxis(field string, axis *space.Axis) []Issue {
	if axis == nil {
		return []Issue{{Severity: SeverityError, Code: codeMissingAxis, Message: "missing " + field, Field: field}}
	}
	var issues []Issue
	if strings.TrimSpace(axis.MinLabel) == "" {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeEmptyAxisLabel, Message: "empty min label", Field: field + ".minLabel"})
	}
	if strings.TrimSpace(axis.MaxLabel) == "" {
		issues = append(issues, Issue{Severity: SeverityError, Code: codeEmptyAxisLabel, Message: "empty max label", Field: field + ".maxLabel"})
	}
	return issues
}

func validateManifestations(ms []space.Manifestation) []Issue {
	var issues []Issue
	ids := make(map[string]bool, len(ms))
	names := make(map[string]bool, len(ms))
	occupied := make(map[[2]float64]string, len(ms))

	for _, m := range ms {
		label := manifestationLabel(m)

		if m.ID != "" {
			if ids[m.ID] {
				issues = append(issues, Issue{Severity: SeverityError, Code: codeDuplicateID, Message: "duplicate id " + m.ID, Manifestation: label})
			}
			ids[m.ID] = true
		}

		if !space.InRange(m.X) || !space.InRange(m.Y) {
			issues = append(issues, Issue{
				Severity:      SeverityError,
				Code:          codeOutOfRange,
				Message:       fmt.Sprintf("coordinate (%v, %v) is outside [-100, 100]", m.X, m.Y),
				Manifestation: label,
			})
		}

		if m.IsImpossible {
			if strings.TrimSpace(m.ImpossibleExplanation) == "" && strings.TrimSpace(m.Description) == "" {
				issues = append(issues, Issue{Severity: SeverityWarn, Code: codeParadoxNoExplanation, Message: "impossible coordinate has no explanation", Manifestation: label})
			}
			continue
		}

		if strings.TrimSpace(m.Name) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeMissingName, Message: "manifestation has no name", Manifestation: label})
		}

		key := [2]float64{m.X, m.Y}
		if other, ok := occupied[key]; ok {
			issues = append(issues, Issue{
				Severity:      SeverityError,
				Code:          codeCoordinateCollision,
				Message:       fmt.Sprintf("shares coordinate (%v, %v) with %s", m.X, m.Y, other),
				Manifestation: label,
			})
		} else {
			occupied[key] = label
		}

		folded := strings.ToLower(strings.TrimSpace(m.Name))
		if folded != "" {
			if names[folded] {
				issues = append(issues, Issue{Severity: SeverityWarn, Code: codeDuplicateName, Message: "name appears more than once", Manifestation: label})
			}
			names[folded] = true
		}

		if m.IsHallucination != space.IsHallucination(m.X, m.Y) {
			issues = append(issues, Issue{
				Severity:      SeverityWarn,
				Code:          codeHallucinationMismatch,
				Message:       fmt.Sprintf("isHallucination is %t but coordinate (%v, %v) implies %t", m.IsHallucination, m.X, m.Y, !m.IsHallucination),
				Manifestation: label,
			})
		}

		issues = append(issues, validateLinks(label, "description", m.Description)...)
		issues = append(issues, validateLinks(label, "reasoning", m.Reasoning)...)
	}
	return issues
}

func validateLinks(label, field, text string) []Issue {
	var issues []Issue
	for _, link := range markdown.Links(text) {
		if err := markdown.CheckURL(link.URL); err != nil {
			issues = append(issues, Issue{
				Severity:      SeverityWarn,
				Code:          codeNonWebLink,
				Message:       fmt.Sprintf("link %q: %v", link.Text, err),
				Manifestation: label,
				Field:         field,
			})
		}
	}
	return issues
}

func manifestationLabel(m space.Manifestation) string {
	if m.Name != "" {
		return m.Name
	}
	if m.ID != "" {
		return m.ID
	}
	return fmt.Sprintf("(%v, %v)", m.X, m.Y)
}
