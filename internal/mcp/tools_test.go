package mcp

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"curiospace/internal/apperr"
	"curiospace/internal/protocol"
	"curiospace/internal/session"
	"curiospace/internal/space"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockProtocol struct {
	subjectResult   protocol.SubjectResult
	subjectErr      error
	axesResult      protocol.AxesResult
	axesErr         error
	manifestResult  space.Manifestation
	manifestErr     error
	placementResult protocol.Placement
	placeErr        error

	lastItems    []string
	lastAxes     protocol.AxesRequest
	lastManifest protocol.ManifestRequest
	lastPlace    protocol.PlaceRequest
	placeCalls   int
}

func (m *mockProtocol) GenerateSubject(ctx context.Context) (protocol.SubjectResult, error) {
	return m.subjectResult, m.subjectErr
}

func (m *mockProtocol) GenerateSubjectFromItems(ctx context.Context, items []string) (protocol.SubjectResult, error) {
	m.lastItems = items
	return m.subjectResult, m.subjectErr
}

func (m *mockProtocol) GenerateAxes(ctx context.Context, req protocol.AxesRequest) (protocol.AxesResult, error) {
	m.lastAxes = req
	return m.axesResult, m.axesErr
}

func (m *mockProtocol) Manifest(ctx context.Context, req protocol.ManifestRequest) (space.Manifestation, error) {
	m.lastManifest = req
	return m.manifestResult, m.manifestErr
}

func (m *mockProtocol) Place(ctx context.Context, req protocol.PlaceRequest) (protocol.Placement, error) {
	m.lastPlace = req
	m.placeCalls++
	return m.placementResult, m.placeErr
}

func newMock() *mockProtocol {
	return &mockProtocol{
		subjectResult: protocol.SubjectResult{Subject: "Breakfast cereals", Reasoning: "familiar"},
		axesResult: protocol.AxesResult{
			XAxis: space.Axis{MinLabel: "Healthy", MaxLabel: "Sugary"},
			YAxis: space.Axis{MinLabel: "Plain", MaxLabel: "Colorful"},
		},
		manifestResult: space.NewManifestation(40, 60, "Froot Loops", "Bright rings", "sweet and loud", "", testNow),
		placementResult: protocol.Placement{
			X: 20, Y: -40, Name: "Cheerios", Description: "Oat rings",
		},
	}
}

func newTestServer(t *testing.T, m *mockProtocol) *Server {
	t.Helper()
	sess := session.New(m, nil, session.WithClock(func() time.Time { return testNow }))
	return NewServer(m, sess, t.TempDir(), "test", nil)
}

func TestGenerateSubject(t *testing.T) {
	server := newTestServer(t, newMock())

	_, output, err := server.handleGenerateSubject(context.Background(), nil, GenerateSubjectInput{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.Subject != "Breakfast cereals" || output.Reasoning != "familiar" {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestGenerateSubjectFromItems_PassesItems(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)

	items := []string{"Cheerios", "Froot Loops", "Muesli"}
	if _, _, err := server.handleGenerateSubjectFromItems(context.Background(), nil, GenerateSubjectFromItemsInput{Items: items}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(m.lastItems) != 3 || m.lastItems[2] != "Muesli" {
		t.Fatalf("expected items to be forwarded, got %v", m.lastItems)
	}
}

func TestGenerateAxes_ForwardsPins(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)

	_, output, err := server.handleGenerateAxes(context.Background(), nil, GenerateAxesInput{
		Subject: "Breakfast cereals",
		XAxis:   AxisInput{MinLabel: "Healthy"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.lastAxes.Subject != "Breakfast cereals" || m.lastAxes.XAxis.MinLabel != "Healthy" {
		t.Fatalf("unexpected request: %+v", m.lastAxes)
	}
	if m.lastAxes.YAxis != (space.Axis{}) {
		t.Fatalf("expected y axis unpinned, got %+v", m.lastAxes.YAxis)
	}
	if output.XAxis.MaxLabel != "Sugary" || output.YAxis.MaxLabel != "Colorful" {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestGenerateAxes_ErrorCarriesKind(t *testing.T) {
	m := newMock()
	m.axesErr = apperr.RateLimited(30*time.Second, nil)
	server := newTestServer(t, m)

	_, _, err := server.handleGenerateAxes(context.Background(), nil, GenerateAxesInput{Subject: "Cereal"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "RATE_LIMITED: ") || !strings.Contains(err.Error(), "30 seconds") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestManifestItem(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)

	_, output, err := server.handleManifestItem(context.Background(), nil, ManifestItemInput{
		Subject:  "Breakfast cereals",
		XAxis:    AxisInput{MinLabel: "Healthy", MaxLabel: "Sugary"},
		YAxis:    AxisInput{MinLabel: "Plain", MaxLabel: "Colorful"},
		X:        40,
		Y:        60,
		Existing: []string{"Cheerios"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.lastManifest.X != 40 || m.lastManifest.Y != 60 || len(m.lastManifest.Existing) != 1 {
		t.Fatalf("unexpected request: %+v", m.lastManifest)
	}
	if output.Name != "Froot Loops" || output.ID == "" {
		t.Fatalf("unexpected output: %+v", output)
	}
	if output.Timestamp != "2026-03-01T12:00:00Z" {
		t.Fatalf("expected RFC3339 timestamp, got %q", output.Timestamp)
	}
}

func TestPlaceItem_CannotPlace(t *testing.T) {
	m := newMock()
	m.placementResult = protocol.Placement{
		CannotPlace: true,
		Name:        space.CannotPlaceName,
		Description: "A bicycle is not a cereal.",
	}
	server := newTestServer(t, m)

	_, output, err := server.handlePlaceItem(context.Background(), nil, PlaceItemInput{
		Subject:  "Breakfast cereals",
		XAxis:    AxisInput{MinLabel: "Healthy", MaxLabel: "Sugary"},
		YAxis:    AxisInput{MinLabel: "Plain", MaxLabel: "Colorful"},
		ItemName: "Bicycle",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !output.CannotPlace || output.Description != "A bicycle is not a cereal." {
		t.Fatalf("unexpected output: %+v", output)
	}
	if m.lastPlace.ItemName != "Bicycle" {
		t.Fatalf("expected item name to be forwarded, got %q", m.lastPlace.ItemName)
	}
}

func TestMapState_Empty(t *testing.T) {
	server := newTestServer(t, newMock())

	_, output, err := server.handleMapState(context.Background(), nil, MapStateInput{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.State != string(session.StateEmpty) || len(output.Manifestations) != 0 {
		t.Fatalf("unexpected state: %+v", output)
	}
}

func TestMapFlow(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)
	ctx := context.Background()

	_, state, err := server.handleMapGenerateAxes(ctx, nil, MapGenerateAxesInput{Subject: "Breakfast cereals"})
	if err != nil {
		t.Fatalf("generate axes: %v", err)
	}
	if state.State != string(session.StateAxesReady) || state.XAxis.MinLabel != "Healthy" {
		t.Fatalf("unexpected state: %+v", state)
	}

	_, manifested, err := server.handleMapManifestAt(ctx, nil, MapManifestAtInput{X: 40, Y: 60})
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifested.Name != "Froot Loops" {
		t.Fatalf("unexpected manifestation: %+v", manifested)
	}

	_, mapPlaced, err := server.handleMapPlaceItem(ctx, nil, MapPlaceItemInput{Name: "Cheerios"})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if mapPlaced.Placed == nil || mapPlaced.Notice != nil {
		t.Fatalf("expected a placed item, got %+v", mapPlaced)
	}
	if len(m.lastPlace.Existing) != 1 || m.lastPlace.Existing[0] != "Froot Loops" {
		t.Fatalf("expected existing names to be sent, got %v", m.lastPlace.Existing)
	}

	_, state, err = server.handleMapState(ctx, nil, MapStateInput{})
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Manifestations) != 2 {
		t.Fatalf("expected 2 manifestations, got %d", len(state.Manifestations))
	}

	_, state, err = server.handleMapDelete(ctx, nil, MapDeleteInput{ID: manifested.ID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(state.Manifestations) != 1 {
		t.Fatalf("expected 1 manifestation after delete, got %d", len(state.Manifestations))
	}

	_, state, err = server.handleMapReset(ctx, nil, MapResetInput{})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if state.State != string(session.StateEmpty) {
		t.Fatalf("expected empty state after reset, got %q", state.State)
	}
}

func TestMapPlaceItem_WithoutAxes(t *testing.T) {
	server := newTestServer(t, newMock())

	_, _, err := server.handleMapPlaceItem(context.Background(), nil, MapPlaceItemInput{Name: "Cheerios"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "INVALID_STATE: ") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestMapEditAxisLabel(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)
	ctx := context.Background()

	if _, _, err := server.handleMapGenerateAxes(ctx, nil, MapGenerateAxesInput{Subject: "Breakfast cereals"}); err != nil {
		t.Fatalf("generate axes: %v", err)
	}

	_, _, err := server.handleMapEditAxisLabel(ctx, nil, MapEditAxisLabelInput{Axis: "z", Side: "min", Label: "Bland"})
	if err == nil || !strings.HasPrefix(err.Error(), "INVALID_REQUEST: ") {
		t.Fatalf("expected invalid request for unknown axis, got %v", err)
	}
	_, _, err = server.handleMapEditAxisLabel(ctx, nil, MapEditAxisLabelInput{Axis: "x", Side: "middle", Label: "Bland"})
	if err == nil || !strings.HasPrefix(err.Error(), "INVALID_REQUEST: ") {
		t.Fatalf("expected invalid request for unknown side, got %v", err)
	}

	_, state, err := server.handleMapEditAxisLabel(ctx, nil, MapEditAxisLabelInput{Axis: "x", Side: "min", Label: "Bland"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !state.Dirty || state.XAxis.MinLabel != "Bland" {
		t.Fatalf("expected a dirty map with the new label, got %+v", state)
	}

	if _, _, err := server.handleMapManifestAt(ctx, nil, MapManifestAtInput{X: 0, Y: 0}); err == nil {
		t.Fatalf("expected manifest to be rejected while axes are dirty")
	}

	m.axesResult.XAxis.MinLabel = "Bland"
	_, state, err = server.handleMapRegenerate(ctx, nil, MapRegenerateInput{})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if state.Dirty {
		t.Fatalf("expected clean map after regenerate")
	}
	if m.lastAxes.XAxis.MinLabel != "Bland" || m.lastAxes.XAxis.MaxLabel != "" {
		t.Fatalf("expected only the edited label to be pinned, got %+v", m.lastAxes.XAxis)
	}
}

func TestMapSaveAndLoad(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)
	ctx := context.Background()

	if _, _, err := server.handleMapSave(ctx, nil, MapSaveInput{}); err == nil {
		t.Fatalf("expected save to fail on an empty map")
	}

	if _, _, err := server.handleMapGenerateAxes(ctx, nil, MapGenerateAxesInput{Subject: "Breakfast cereals"}); err != nil {
		t.Fatalf("generate axes: %v", err)
	}
	if _, _, err := server.handleMapManifestAt(ctx, nil, MapManifestAtInput{X: 40, Y: 60}); err != nil {
		t.Fatalf("manifest: %v", err)
	}

	_, saved, err := server.handleMapSave(ctx, nil, MapSaveInput{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(saved.Path); err != nil {
		t.Fatalf("expected snapshot file at %s: %v", saved.Path, err)
	}

	if _, _, err := server.handleMapReset(ctx, nil, MapResetInput{}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := server.handleMapLoad(ctx, nil, MapLoadInput{}); err == nil {
		t.Fatalf("expected load without a path to fail")
	}

	_, state, err := server.handleMapLoad(ctx, nil, MapLoadInput{Path: saved.Path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Subject != "Breakfast cereals" || len(state.Manifestations) != 1 {
		t.Fatalf("unexpected state after load: %+v", state)
	}
}

func TestMapSeed(t *testing.T) {
	m := newMock()
	server := newTestServer(t, m)

	_, output, err := server.handleMapSeed(context.Background(), nil, MapSeedInput{
		Items: []string{"Cheerios", "Froot Loops", "Muesli"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if output.Subject != "Breakfast cereals" {
		t.Fatalf("unexpected subject: %q", output.Subject)
	}
	if m.placeCalls != 3 {
		t.Fatalf("expected 3 placements, got %d", m.placeCalls)
	}
	if len(output.Placed)+len(output.Skipped) != 3 {
		t.Fatalf("expected every item to be accounted for, got %+v", output)
	}
}

func TestMapSeed_WrongCount(t *testing.T) {
	server := newTestServer(t, newMock())

	_, _, err := server.handleMapSeed(context.Background(), nil, MapSeedInput{Items: []string{"Cheerios"}})
	if err == nil || !strings.HasPrefix(err.Error(), "INVALID_REQUEST: ") {
		t.Fatalf("expected invalid request, got %v", err)
	}
}
