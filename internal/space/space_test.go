package space

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curiospace/internal/apperr"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func coffeeSpace() *Space {
	return New("Coffee Culture",
		Axis{MinLabel: "Minimalist", MaxLabel: "Ceremonial"},
		Axis{MinLabel: "Solitary", MaxLabel: "Communal"},
		fixedNow)
}

func TestIsHallucination(t *testing.T) {
	cases := []struct {
		x, y float64
		want bool
	}{
		{0, 0, false},
		{80, 80, false},
		{-80, 80, false},
		{80.5, 0, true},
		{0, -81, true},
		{100, 100, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsHallucination(tc.x, tc.y), "(%v, %v)", tc.x, tc.y)
	}
}

func TestNewManifestationDerivesHallucination(t *testing.T) {
	m := NewManifestation(95, 10, "Kopi Luwak", "desc", "why", "", fixedNow)
	assert.True(t, m.IsHallucination)
	assert.NotEmpty(t, m.ID)

	m = NewManifestation(10, 10, "Flat White", "desc", "why", "", fixedNow)
	assert.False(t, m.IsHallucination)
}

func TestSnapAndRange(t *testing.T) {
	assert.Equal(t, 12.5, Snap(12.4))
	assert.Equal(t, 12.0, Snap(12.2))
	assert.Equal(t, -3.0, Snap(-3.1))
	assert.True(t, InRange(-100))
	assert.True(t, InRange(100))
	assert.False(t, InRange(100.5))
	assert.Equal(t, 100.0, Clamp(140))
	assert.Equal(t, -100.0, Clamp(-101))
}

func TestUpsertByCoordinate(t *testing.T) {
	s := coffeeSpace()

	first := NewManifestation(10, 20, "Espresso", "a", "b", "", fixedNow)
	second := NewManifestation(10, 20, "Ristretto", "c", "d", "", fixedNow)
	other := NewManifestation(-10, 20, "Drip", "e", "f", "", fixedNow)

	assert.False(t, s.Upsert(first, fixedNow))
	assert.False(t, s.Upsert(other, fixedNow))
	assert.True(t, s.Upsert(second, fixedNow))

	require.Len(t, s.Manifestations, 2)
	got, ok := s.At(10, 20)
	require.True(t, ok)
	assert.Equal(t, "Ristretto", got.Name)
}

func TestUpsertReplacesParadox(t *testing.T) {
	s := coffeeSpace()
	s.Upsert(NewImpossible(100, 100, "cannot be both", fixedNow), fixedNow)
	s.Upsert(NewManifestation(100, 100, "Tea Ceremony Latte", "a", "b", "", fixedNow), fixedNow)

	require.Len(t, s.Manifestations, 1)
	assert.False(t, s.Manifestations[0].IsImpossible)
}

func TestDeleteAndNames(t *testing.T) {
	s := coffeeSpace()
	keep := NewManifestation(1, 1, "Cortado", "a", "b", "", fixedNow)
	drop := NewManifestation(2, 2, "Mocha", "a", "b", "", fixedNow)
	s.Upsert(keep, fixedNow)
	s.Upsert(drop, fixedNow)
	s.Upsert(NewImpossible(-100, 100, "no", fixedNow), fixedNow)

	assert.Equal(t, []string{"Cortado", "Mocha"}, s.Names())
	assert.True(t, s.Delete(drop.ID, fixedNow))
	assert.False(t, s.Delete(drop.ID, fixedNow))
	assert.Equal(t, []string{"Cortado"}, s.Names())
}

func TestCloneIsIndependent(t *testing.T) {
	s := coffeeSpace()
	s.Upsert(NewManifestation(1, 1, "Cortado", "a", "b", "", fixedNow), fixedNow)

	c := s.Clone()
	c.Manifestations[0].Name = "changed"
	assert.Equal(t, "Cortado", s.Manifestations[0].Name)
}

func TestContainsName(t *testing.T) {
	names := []string{"Cold Brew", "Espresso"}
	assert.True(t, ContainsName(names, "  cold brew "))
	assert.False(t, ContainsName(names, "Latte"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := coffeeSpace()
	s.Upsert(NewManifestation(0, 0, "Americano", "[link](https://example.com)", "balanced", "", fixedNow), fixedNow)
	s.Upsert(NewImpossible(100, -100, "paradox", fixedNow), fixedNow)

	data, err := EncodeSnapshot(NewSnapshot(s, []string{"a", "b", "c"}, fixedNow))
	require.NoError(t, err)

	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)

	loaded := snap.ToSpace(fixedNow.Add(time.Hour))
	assert.Equal(t, s.Subject, loaded.Subject)
	assert.Equal(t, s.XAxis, loaded.XAxis)
	assert.Equal(t, s.YAxis, loaded.YAxis)
	assert.Equal(t, s.Manifestations, loaded.Manifestations)
	assert.Equal(t, []string{"a", "b", "c"}, snap.SubjectGeneratedFrom)
}

func TestSnapshotNullGeneratedFrom(t *testing.T) {
	data, err := EncodeSnapshot(NewSnapshot(coffeeSpace(), nil, fixedNow))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subjectGeneratedFrom": null`)
}

func TestDecodeSnapshotRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"not json":              `{`,
		"missing subject":       `{"xAxis":{"minLabel":"a","maxLabel":"b"},"yAxis":{"minLabel":"c","maxLabel":"d"},"manifestations":[]}`,
		"missing x axis":        `{"subject":"s","yAxis":{"minLabel":"c","maxLabel":"d"},"manifestations":[]}`,
		"missing y axis":        `{"subject":"s","xAxis":{"minLabel":"a","maxLabel":"b"},"manifestations":[]}`,
		"manifestations object": `{"subject":"s","xAxis":{"minLabel":"a","maxLabel":"b"},"yAxis":{"minLabel":"c","maxLabel":"d"},"manifestations":{}}`,
		"manifestations absent": `{"subject":"s","xAxis":{"minLabel":"a","maxLabel":"b"},"yAxis":{"minLabel":"c","maxLabel":"d"}}`,
		"bad entry":             `{"subject":"s","xAxis":{"minLabel":"a","maxLabel":"b"},"yAxis":{"minLabel":"c","maxLabel":"d"},"manifestations":[{"x":"left"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(body))
			assert.Nil(t, snap)
			assert.True(t, errors.Is(err, apperr.ErrInvalidFileFormat), "got %v", err)
		})
	}
}

func TestSnapshotFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	require.NoError(t, WriteSnapshotFile(path, NewSnapshot(coffeeSpace(), nil, fixedNow)))

	snap, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Coffee Culture", snap.Subject)

	_, err = ReadSnapshotFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshotFileName(t *testing.T) {
	cases := map[string]string{
		"Coffee  Culture":      "curio-coffee-culture-1772366400000.json",
		"AC/DC Songs":          "curio-ac-dc-songs-1772366400000.json",
		"x/../../../escaped":   "curio-x-escaped-1772366400000.json",
		`..\..\Windows Things`: "curio-windows-things-1772366400000.json",
		"  Café? Crème!  ":     "curio-caf-cr-me-1772366400000.json",
		"../..":                "curio-map-1772366400000.json",
	}
	for subject, want := range cases {
		t.Run(subject, func(t *testing.T) {
			name := SnapshotFileName(subject, fixedNow)
			assert.Equal(t, want, name)
			assert.Equal(t, filepath.Base(name), name)
		})
	}
}

func TestSnapshotLoadCollapsesSharedCoordinates(t *testing.T) {
	data := []byte(`{"subject":"Tea","xAxis":{"minLabel":"a","maxLabel":"b"},"yAxis":{"minLabel":"c","maxLabel":"d"},"manifestations":[
		{"id":"1","x":10,"y":10,"name":"Sencha","description":"d"},
		{"id":"2","x":-5,"y":0,"name":"Oolong","description":"d"},
		{"id":"3","x":10,"y":10,"name":"Gyokuro","description":"d"}
	]}`)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)

	s := snap.ToSpace(fixedNow)
	require.Len(t, s.Manifestations, 2)
	m, ok := s.At(10, 10)
	require.True(t, ok)
	assert.Equal(t, "Gyokuro", m.Name)
	_, ok = s.Find("1")
	assert.False(t, ok)
}
