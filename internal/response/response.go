// Package response turns raw completion text into validated, typed results.
// Every failure is a MALFORMED_RESPONSE error; nothing here retries.
package response

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"curiospace/internal/apperr"
	"curiospace/internal/space"
)

// ErrMissingRequiredFields marks a structurally valid object that lacks
// fields its operation requires.
var ErrMissingRequiredFields = errors.New("missing required fields")

var (
	// wrappedPattern matches text that is one fenced block from start to end.
	// It is greedy so fences inside JSON strings stay in the body.
	wrappedPattern = regexp.MustCompile("(?s)\\A```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*)```\\z")
	// fencePattern finds the first fenced block inside surrounding prose.
	fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*?)\\r?\\n?```")
)

// Extract returns the JSON candidate in text: the trimmed text when it is
// already valid JSON, else the body of its fenced code block if any.
func Extract(text string) string {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}
	if m := wrappedPattern.FindStringSubmatch(trimmed); len(m) > 1 {
		if body := strings.TrimSpace(m[1]); json.Valid([]byte(body)) {
			return body
		}
	}
	if m := fencePattern.FindStringSubmatch(trimmed); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

func decode(text string, v any) error {
	cleaned := Extract(text)
	if cleaned == "" {
		return apperr.New(apperr.KindMalformedResponse, "empty response")
	}
	if !strings.HasPrefix(cleaned, "{") {
		return apperr.New(apperr.KindMalformedResponse, "response is not a JSON object")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return apperr.Wrap(apperr.KindMalformedResponse, err, "response is not valid JSON")
	}
	return nil
}

func missing(op string, fields []string) error {
	return apperr.Wrap(apperr.KindMalformedResponse, ErrMissingRequiredFields, "%s response missing %s", op, strings.Join(fields, ", "))
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

type Subject struct {
	Subject   string `json:"subject"`
	Reasoning string `json:"reasoning"`
}

type subjectPayload struct {
	Subject   *string `json:"subject"`
	Reasoning *string `json:"reasoning"`
}

// DecodeSubject validates a subject answer. Reasoning is optional.
func DecodeSubject(text string) (Subject, error) {
	var p subjectPayload
	if err := decode(text, &p); err != nil {
		return Subject{}, err
	}
	if blank(p.Subject) {
		return Subject{}, missing("subject", []string{"subject"})
	}
	out := Subject{Subject: strings.TrimSpace(*p.Subject)}
	if p.Reasoning != nil {
		out.Reasoning = *p.Reasoning
	}
	return out, nil
}

type axisPayload struct {
	MinLabel *string `json:"minLabel"`
	MaxLabel *string `json:"maxLabel"`
}

type axesPayload struct {
	XAxis *axisPayload `json:"xAxis"`
	YAxis *axisPayload `json:"yAxis"`
}

// DecodeAxes validates that both axes carry both labels.
func DecodeAxes(text string) (space.Axis, space.Axis, error) {
	var p axesPayload
	if err := decode(text, &p); err != nil {
		return space.Axis{}, space.Axis{}, err
	}

	var absent []string
	check := func(name string, a *axisPayload) space.Axis {
		if a == nil {
			absent = append(absent, name)
			return space.Axis{}
		}
		if blank(a.MinLabel) {
			absent = append(absent, name+".minLabel")
		}
		if blank(a.MaxLabel) {
			absent = append(absent, name+".maxLabel")
		}
		if len(absent) > 0 {
			return space.Axis{}
		}
		return space.Axis{MinLabel: strings.TrimSpace(*a.MinLabel), MaxLabel: strings.TrimSpace(*a.MaxLabel)}
	}
	x := check("xAxis", p.XAxis)
	y := check("yAxis", p.YAxis)
	if len(absent) > 0 {
		return space.Axis{}, space.Axis{}, missing("axes", absent)
	}
	return x, y, nil
}

// Manifestation is either a named entity or a boundary-paradox verdict.
type Manifestation struct {
	Impossible  bool
	Explanation string

	Name        string
	Description string
	Reasoning   string
}

type manifestationPayload struct {
	IsImpossible bool    `json:"isImpossible"`
	Explanation  *string `json:"explanation"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Reasoning    *string `json:"reasoning"`
}

func DecodeManifestation(text string) (Manifestation, error) {
	var p manifestationPayload
	if err := decode(text, &p); err != nil {
		return Manifestation{}, err
	}
	if p.IsImpossible {
		if blank(p.Explanation) {
			return Manifestation{}, missing("manifestation", []string{"explanation"})
		}
		return Manifestation{Impossible: true, Explanation: *p.Explanation}, nil
	}

	var absent []string
	if blank(p.Name) {
		absent = append(absent, "name")
	}
	if blank(p.Description) {
		absent = append(absent, "description")
	}
	if blank(p.Reasoning) {
		absent = append(absent, "reasoning")
	}
	if len(absent) > 0 {
		return Manifestation{}, missing("manifestation", absent)
	}
	return Manifestation{
		Name:        strings.TrimSpace(*p.Name),
		Description: *p.Description,
		Reasoning:   *p.Reasoning,
	}, nil
}

// Placement is either coordinates for an item or a cannot-place verdict.
// Name is empty when the model did not return one.
type Placement struct {
	CannotPlace bool
	Explanation string

	X           float64
	Y           float64
	Name        string
	Description string
	Reasoning   string
}

type placementPayload struct {
	CannotPlace bool     `json:"cannotPlace"`
	Explanation *string  `json:"explanation"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Reasoning   *string  `json:"reasoning"`
}

func DecodePlacement(text string) (Placement, error) {
	var p placementPayload
	if err := decode(text, &p); err != nil {
		return Placement{}, err
	}
	if p.CannotPlace {
		out := Placement{CannotPlace: true}
		if p.Explanation != nil {
			out.Explanation = *p.Explanation
		}
		return out, nil
	}

	var absent []string
	if p.X == nil {
		absent = append(absent, "x")
	}
	if p.Y == nil {
		absent = append(absent, "y")
	}
	if blank(p.Description) {
		absent = append(absent, "description")
	}
	if blank(p.Reasoning) {
		absent = append(absent, "reasoning")
	}
	if len(absent) > 0 {
		return Placement{}, missing("placement", absent)
	}
	out := Placement{
		X:           *p.X,
		Y:           *p.Y,
		Description: *p.Description,
		Reasoning:   *p.Reasoning,
	}
	if !blank(p.Name) {
		out.Name = strings.TrimSpace(*p.Name)
	}
	return out, nil
}
