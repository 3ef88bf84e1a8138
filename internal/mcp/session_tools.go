package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"curiospace/internal/apperr"
	"curiospace/internal/space"
)

type MapStateInput struct{}

type MapGenerateAxesInput struct {
	Subject string    `json:"subject" jsonschema:"subject to map"`
	XAxis   AxisInput `json:"x_axis,omitempty" jsonschema:"pinned x-axis labels"`
	YAxis   AxisInput `json:"y_axis,omitempty" jsonschema:"pinned y-axis labels"`
}

type MapRandomInput struct{}

type MapEditAxisLabelInput struct {
	Axis  string `json:"axis" jsonschema:"x or y"`
	Side  string `json:"side" jsonschema:"min or max"`
	Label string `json:"label" jsonschema:"new label"`
}

type MapRegenerateInput struct{}

type MapManifestAtInput struct {
	X float64 `json:"x" jsonschema:"x coordinate between -100 and 100"`
	Y float64 `json:"y" jsonschema:"y coordinate between -100 and 100"`
}

type MapPlaceItemInput struct {
	Name string `json:"name" jsonschema:"item to place on the current map"`
}

type MapDeleteInput struct {
	ID string `json:"id" jsonschema:"manifestation id"`
}

type MapResetInput struct{}

type MapSaveInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"directory to write the snapshot to; defaults to the server snapshot directory"`
}

type MapLoadInput struct {
	Path string `json:"path" jsonschema:"snapshot file to load"`
}

type MapSeedInput struct {
	Items []string `json:"items" jsonschema:"exactly three example items"`
}

type NoticeOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type StateOutput struct {
	State                string                `json:"state"`
	Subject              string                `json:"subject,omitempty"`
	XAxis                AxisOutput            `json:"x_axis"`
	YAxis                AxisOutput            `json:"y_axis"`
	Manifestations       []ManifestationOutput `json:"manifestations"`
	SubjectGeneratedFrom []string              `json:"subject_generated_from,omitempty"`
	Dirty                bool                  `json:"dirty"`
	Selected             string                `json:"selected,omitempty"`
	Notice               *NoticeOutput         `json:"notice,omitempty"`
	LastError            string                `json:"last_error,omitempty"`
}

type MapPlaceOutput struct {
	Placed *ManifestationOutput `json:"placed,omitempty"`
	Notice *NoticeOutput        `json:"notice,omitempty"`
}

type MapSaveOutput struct {
	Path string `json:"path"`
}

type SeedSkipOutput struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

type MapSeedOutput struct {
	Subject   string                `json:"subject"`
	Reasoning string                `json:"reasoning,omitempty"`
	Axes      AxesOutput            `json:"axes"`
	Placed    []ManifestationOutput `json:"placed"`
	Skipped   []SeedSkipOutput      `json:"skipped,omitempty"`
}

func (s *Server) registerSessionTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_state",
		Description: "Show the current map: subject, axes, manifestations and any notice",
	}, s.handleMapState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_generate_axes",
		Description: "Start a new map for a subject; clears all manifestations",
	}, s.handleMapGenerateAxes)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_random",
		Description: "Start a new map for a model-chosen subject",
	}, s.handleMapRandom)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_edit_axis_label",
		Description: "Change one axis label; clears the map until map_regenerate is called",
	}, s.handleMapEditAxisLabel)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_regenerate",
		Description: "Regenerate axes around the edited labels",
	}, s.handleMapRegenerate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_manifest_at",
		Description: "Discover what lives at a coordinate on the current map",
	}, s.handleMapManifestAt)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_place_item",
		Description: "Place a named item on the current map",
	}, s.handleMapPlaceItem)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_delete",
		Description: "Remove a manifestation from the current map",
	}, s.handleMapDelete)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_reset",
		Description: "Discard the current map",
	}, s.handleMapReset)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_save",
		Description: "Save the current map as a JSON snapshot",
	}, s.handleMapSave)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_load",
		Description: "Replace the current map with a saved snapshot",
	}, s.handleMapLoad)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "map_seed",
		Description: "Build a map from three example items",
	}, s.handleMapSeed)
}

func (s *Server) handleMapState(ctx context.Context, req *sdk.CallToolRequest, input MapStateInput) (*sdk.CallToolResult, StateOutput, error) {
	return nil, s.state(), nil
}

func (s *Server) handleMapGenerateAxes(ctx context.Context, req *sdk.CallToolRequest, input MapGenerateAxesInput) (*sdk.CallToolResult, StateOutput, error) {
	if _, err := s.session.GenerateAxes(ctx, input.Subject, input.XAxis.axis(), input.YAxis.axis()); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapRandom(ctx context.Context, req *sdk.CallToolRequest, input MapRandomInput) (*sdk.CallToolResult, StateOutput, error) {
	if _, err := s.session.GenerateRandom(ctx); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapEditAxisLabel(ctx context.Context, req *sdk.CallToolRequest, input MapEditAxisLabelInput) (*sdk.CallToolResult, StateOutput, error) {
	axis, err := space.ParseAxisName(input.Axis)
	if err != nil {
		return nil, StateOutput{}, toolError(apperr.New(apperr.KindInvalidRequest, "%v", err))
	}
	side, err := space.ParseSide(input.Side)
	if err != nil {
		return nil, StateOutput{}, toolError(apperr.New(apperr.KindInvalidRequest, "%v", err))
	}
	if err := s.session.EditAxisLabel(axis, side, input.Label); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapRegenerate(ctx context.Context, req *sdk.CallToolRequest, input MapRegenerateInput) (*sdk.CallToolResult, StateOutput, error) {
	if _, err := s.session.Regenerate(ctx); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapManifestAt(ctx context.Context, req *sdk.CallToolRequest, input MapManifestAtInput) (*sdk.CallToolResult, ManifestationOutput, error) {
	m, err := s.session.ManifestAt(ctx, input.X, input.Y)
	if err != nil {
		return nil, ManifestationOutput{}, toolError(err)
	}
	return nil, manifestationOutput(m), nil
}

func (s *Server) handleMapPlaceItem(ctx context.Context, req *sdk.CallToolRequest, input MapPlaceItemInput) (*sdk.CallToolResult, MapPlaceOutput, error) {
	res, err := s.session.PlaceItem(ctx, input.Name)
	if err != nil {
		return nil, MapPlaceOutput{}, toolError(err)
	}
	var out MapPlaceOutput
	if res.Manifestation != nil {
		m := manifestationOutput(*res.Manifestation)
		out.Placed = &m
	}
	if res.Notice != nil {
		out.Notice = &NoticeOutput{Name: res.Notice.Name, Description: res.Notice.Description}
	}
	return nil, out, nil
}

func (s *Server) handleMapDelete(ctx context.Context, req *sdk.CallToolRequest, input MapDeleteInput) (*sdk.CallToolResult, StateOutput, error) {
	if err := s.session.DeleteManifestation(input.ID); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapReset(ctx context.Context, req *sdk.CallToolRequest, input MapResetInput) (*sdk.CallToolResult, StateOutput, error) {
	s.session.Reset()
	return nil, s.state(), nil
}

func (s *Server) handleMapSave(ctx context.Context, req *sdk.CallToolRequest, input MapSaveInput) (*sdk.CallToolResult, MapSaveOutput, error) {
	dir := input.Dir
	if dir == "" {
		dir = s.snapshotDir
	}
	path, err := s.session.SaveSnapshot(dir)
	if err != nil {
		return nil, MapSaveOutput{}, toolError(err)
	}
	return nil, MapSaveOutput{Path: path}, nil
}

func (s *Server) handleMapLoad(ctx context.Context, req *sdk.CallToolRequest, input MapLoadInput) (*sdk.CallToolResult, StateOutput, error) {
	if input.Path == "" {
		return nil, StateOutput{}, toolError(apperr.New(apperr.KindInvalidRequest, "path is required"))
	}
	if err := s.session.LoadSnapshotFile(input.Path); err != nil {
		return nil, StateOutput{}, toolError(err)
	}
	return nil, s.state(), nil
}

func (s *Server) handleMapSeed(ctx context.Context, req *sdk.CallToolRequest, input MapSeedInput) (*sdk.CallToolResult, MapSeedOutput, error) {
	res, err := s.session.SeedFromItems(ctx, input.Items)
	if err != nil {
		return nil, MapSeedOutput{}, toolError(err)
	}
	out := MapSeedOutput{
		Subject:   res.Subject,
		Reasoning: res.Reasoning,
		Axes:      axesOutput(res.Axes.XAxis, res.Axes.YAxis),
		Placed:    manifestationOutputs(res.Placed),
	}
	for _, sk := range res.Skipped {
		out.Skipped = append(out.Skipped, SeedSkipOutput{Item: sk.Item, Reason: sk.Reason})
	}
	return nil, out, nil
}

func (s *Server) state() StateOutput {
	v := s.session.View()
	out := StateOutput{
		State:                string(v.State),
		Subject:              v.Subject,
		XAxis:                AxisOutput{MinLabel: v.XAxis.MinLabel, MaxLabel: v.XAxis.MaxLabel},
		YAxis:                AxisOutput{MinLabel: v.YAxis.MinLabel, MaxLabel: v.YAxis.MaxLabel},
		Manifestations:       manifestationOutputs(v.Manifestations),
		SubjectGeneratedFrom: v.SubjectGeneratedFrom,
		Dirty:                v.Dirty,
		Selected:             v.Selected,
		LastError:            v.LastError,
	}
	if v.Notice != nil {
		out.Notice = &NoticeOutput{Name: v.Notice.Name, Description: v.Notice.Description}
	}
	return out
}
