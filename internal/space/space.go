// Package space holds the Curio Space data model: the two semantic axes, the
// manifestations placed on the plane and the aggregate that owns them.
package space

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinCoordinate = -100.0
	MaxCoordinate = 100.0

	// HallucinationThreshold is the absolute coordinate beyond which an
	// answer is flagged as speculative.
	HallucinationThreshold = 80.0

	FormatVersion = "1.0"

	ImpossibleName  = "Impossible Coordinate"
	CannotPlaceName = "Cannot Place"
)

type AxisName string

const (
	AxisX AxisName = "x"
	AxisY AxisName = "y"
)

type Side string

const (
	SideMin Side = "min"
	SideMax Side = "max"
)

func ParseAxisName(s string) (AxisName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	default:
		return "", fmt.Errorf("unknown axis %q", s)
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min":
		return SideMin, nil
	case "max":
		return SideMax, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Axis is one semantic dimension. MinLabel anchors -100, MaxLabel anchors +100.
// The same type carries partially supplied labels, where an empty label means
// "not supplied".
type Axis struct {
	MinLabel string `json:"minLabel"`
	MaxLabel string `json:"maxLabel"`
}

func (a Axis) Complete() bool {
	return strings.TrimSpace(a.MinLabel) != "" && strings.TrimSpace(a.MaxLabel) != ""
}

func (a Axis) Label(side Side) string {
	if side == SideMin {
		return a.MinLabel
	}
	return a.MaxLabel
}

func (a *Axis) SetLabel(side Side, label string) {
	if side == SideMin {
		a.MinLabel = label
		return
	}
	a.MaxLabel = label
}

// Trimmed returns the axis with surrounding whitespace removed from both labels.
func (a Axis) Trimmed() Axis {
	return Axis{MinLabel: strings.TrimSpace(a.MinLabel), MaxLabel: strings.TrimSpace(a.MaxLabel)}
}

// Manifestation is one entity placed on the map.
type Manifestation struct {
	ID                    string    `json:"id"`
	X                     float64   `json:"x"`
	Y                     float64   `json:"y"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	Reasoning             string    `json:"reasoning"`
	ImageURL              string    `json:"imageUrl"`
	Timestamp             time.Time `json:"timestamp"`
	IsHallucination       bool      `json:"isHallucination"`
	IsImpossible          bool      `json:"isImpossible,omitempty"`
	ImpossibleExplanation string    `json:"impossibleExplanation,omitempty"`
}

// InRange reports whether v is a finite coordinate inside [-100, 100].
func InRange(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= MinCoordinate && v <= MaxCoordinate
}

// Snap rounds a coordinate to the nearest 0.5.
func Snap(v float64) float64 {
	return math.Round(v*2) / 2
}

// Clamp bounds v to [-100, 100].
func Clamp(v float64) float64 {
	return math.Max(MinCoordinate, math.Min(MaxCoordinate, v))
}

// IsHallucination is the speculative-answer flag for a coordinate.
func IsHallucination(x, y float64) bool {
	return math.Abs(x) > HallucinationThreshold || math.Abs(y) > HallucinationThreshold
}

func PlaceholderImageURL(name string) string {
	return "https://via.placeholder.com/1024x1024/4A90E2/ffffff?text=" + url.QueryEscape(name)
}

// NewManifestation builds a placed entry with a fresh id. The hallucination
// flag is derived from the coordinate alone.
func NewManifestation(x, y float64, name, description, reasoning, imageURL string, now time.Time) Manifestation {
	return Manifestation{
		ID:              uuid.NewString(),
		X:               x,
		Y:               y,
		Name:            name,
		Description:     description,
		Reasoning:       reasoning,
		ImageURL:        imageURL,
		Timestamp:       now,
		IsHallucination: IsHallucination(x, y),
	}
}

// NewImpossible builds a boundary-paradox entry.
func NewImpossible(x, y float64, explanation string, now time.Time) Manifestation {
	return Manifestation{
		ID:                    uuid.NewString(),
		X:                     x,
		Y:                     y,
		Name:                  ImpossibleName,
		Description:           explanation,
		Timestamp:             now,
		IsImpossible:          true,
		ImpossibleExplanation: explanation,
	}
}

// Space is the aggregate root. It exclusively owns its manifestations.
type Space struct {
	ID             string          `json:"id"`
	Version        string          `json:"version"`
	Subject        string          `json:"subject"`
	XAxis          Axis            `json:"xAxis"`
	YAxis          Axis            `json:"yAxis"`
	Manifestations []Manifestation `json:"manifestations"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastModified   time.Time       `json:"lastModified"`
}

func New(subject string, xAxis, yAxis Axis, now time.Time) *Space {
	return &Space{
		ID:             uuid.NewString(),
		Version:        FormatVersion,
		Subject:        subject,
		XAxis:          xAxis,
		YAxis:          yAxis,
		Manifestations: []Manifestation{},
		CreatedAt:      now,
		LastModified:   now,
	}
}

func (s *Space) Axis(name AxisName) Axis {
	if name == AxisX {
		return s.XAxis
	}
	return s.YAxis
}

func (s *Space) SetAxes(xAxis, yAxis Axis, now time.Time) {
	s.XAxis = xAxis
	s.YAxis = yAxis
	s.LastModified = now
}

func (s *Space) SetLabel(axis AxisName, side Side, label string, now time.Time) {
	if axis == AxisX {
		s.XAxis.SetLabel(side, label)
	} else {
		s.YAxis.SetLabel(side, label)
	}
	s.LastModified = now
}

// Upsert places m, replacing whatever occupied the same coordinate. It
// reports whether an entry was replaced.
func (s *Space) Upsert(m Manifestation, now time.Time) bool {
	replaced := false
	kept := s.Manifestations[:0]
	for _, existing := range s.Manifestations {
		if existing.X == m.X && existing.Y == m.Y {
			replaced = true
			continue
		}
		kept = append(kept, existing)
	}
	s.Manifestations = append(kept, m)
	s.LastModified = now
	return replaced
}

func (s *Space) Delete(id string, now time.Time) bool {
	for i, m := range s.Manifestations {
		if m.ID == id {
			s.Manifestations = append(s.Manifestations[:i], s.Manifestations[i+1:]...)
			s.LastModified = now
			return true
		}
	}
	return false
}

func (s *Space) ClearManifestations(now time.Time) {
	s.Manifestations = []Manifestation{}
	s.LastModified = now
}

func (s *Space) Find(id string) (Manifestation, bool) {
	for _, m := range s.Manifestations {
		if m.ID == id {
			return m, true
		}
	}
	return Manifestation{}, false
}

func (s *Space) At(x, y float64) (Manifestation, bool) {
	for _, m := range s.Manifestations {
		if m.X == x && m.Y == y {
			return m, true
		}
	}
	return Manifestation{}, false
}

// Names lists the names of real (non-paradox) manifestations, used as the
// duplicate-avoidance list in prompts.
func (s *Space) Names() []string {
	names := make([]string, 0, len(s.Manifestations))
	for _, m := range s.Manifestations {
		if m.IsImpossible {
			continue
		}
		names = append(names, m.Name)
	}
	return names
}

// Clone returns a deep copy safe to hand to callers outside the owning lock.
func (s *Space) Clone() *Space {
	if s == nil {
		return nil
	}
	out := *s
	out.Manifestations = append([]Manifestation(nil), s.Manifestations...)
	if out.Manifestations == nil {
		out.Manifestations = []Manifestation{}
	}
	return &out
}

// ContainsName reports whether names holds name, ignoring case and
// surrounding whitespace.
func ContainsName(names []string, name string) bool {
	needle := strings.TrimSpace(name)
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), needle) {
			return true
		}
	}
	return false
}
