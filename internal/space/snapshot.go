package space

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"curiospace/internal/apperr"
)

// Snapshot is the file export/import format.
type Snapshot struct {
	Subject              string          `json:"subject"`
	XAxis                Axis            `json:"xAxis"`
	YAxis                Axis            `json:"yAxis"`
	Manifestations       []Manifestation `json:"manifestations"`
	SubjectGeneratedFrom []string        `json:"subjectGeneratedFrom"`
	SavedAt              time.Time       `json:"savedAt"`
}

// rawSnapshot detects absent top-level fields before decoding.
type rawSnapshot struct {
	Subject              *string         `json:"subject"`
	XAxis                *Axis           `json:"xAxis"`
	YAxis                *Axis           `json:"yAxis"`
	Manifestations       json.RawMessage `json:"manifestations"`
	SubjectGeneratedFrom []string        `json:"subjectGeneratedFrom"`
	SavedAt              *time.Time      `json:"savedAt"`
}

func NewSnapshot(s *Space, generatedFrom []string, now time.Time) Snapshot {
	manifestations := append([]Manifestation(nil), s.Manifestations...)
	if manifestations == nil {
		manifestations = []Manifestation{}
	}
	return Snapshot{
		Subject:              s.Subject,
		XAxis:                s.XAxis,
		YAxis:                s.YAxis,
		Manifestations:       manifestations,
		SubjectGeneratedFrom: generatedFrom,
		SavedAt:              now,
	}
}

// ToSpace builds a fresh aggregate from the snapshot contents. Entries that
// share a coordinate collapse to the last one in file order.
func (snap Snapshot) ToSpace(now time.Time) *Space {
	s := New(snap.Subject, snap.XAxis, snap.YAxis, now)
	for _, m := range snap.Manifestations {
		s.Upsert(m, now)
	}
	return s
}

func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses and validates a snapshot. Any shape problem is an
// INVALID_FILE_FORMAT error and nothing is partially returned.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidFileFormat, err, "invalid file format")
	}
	if raw.Subject == nil || strings.TrimSpace(*raw.Subject) == "" {
		return nil, apperr.New(apperr.KindInvalidFileFormat, "invalid file format: subject is required")
	}
	if raw.XAxis == nil || !raw.XAxis.Complete() {
		return nil, apperr.New(apperr.KindInvalidFileFormat, "invalid file format: xAxis is required")
	}
	if raw.YAxis == nil || !raw.YAxis.Complete() {
		return nil, apperr.New(apperr.KindInvalidFileFormat, "invalid file format: yAxis is required")
	}
	trimmed := bytes.TrimSpace(raw.Manifestations)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperr.New(apperr.KindInvalidFileFormat, "invalid file format: manifestations must be an array")
	}
	var manifestations []Manifestation
	if err := json.Unmarshal(trimmed, &manifestations); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidFileFormat, err, "invalid file format: manifestations")
	}
	if manifestations == nil {
		manifestations = []Manifestation{}
	}

	snap := &Snapshot{
		Subject:              *raw.Subject,
		XAxis:                *raw.XAxis,
		YAxis:                *raw.YAxis,
		Manifestations:       manifestations,
		SubjectGeneratedFrom: raw.SubjectGeneratedFrom,
	}
	if raw.SavedAt != nil {
		snap.SavedAt = *raw.SavedAt
	}
	return snap, nil
}

func WriteSnapshotFile(path string, snap Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeSnapshot(data)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// SnapshotFileName names an export as curio-<subject>-<unix millis>.json.
// The subject is reduced to [a-z0-9-] so the name never leaves its directory.
func SnapshotFileName(subject string, now time.Time) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(subject), "-"), "-")
	if slug == "" {
		slug = "map"
	}
	return fmt.Sprintf("curio-%s-%d.json", slug, now.UnixMilli())
}
