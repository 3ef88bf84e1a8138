package mcp

import (
	"context"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

type AxisInput struct {
	MinLabel string `json:"min_label,omitempty" jsonschema:"label at -100; omit to let the model choose"`
	MaxLabel string `json:"max_label,omitempty" jsonschema:"label at +100; omit to let the model choose"`
}

func (a AxisInput) axis() space.Axis {
	return space.Axis{MinLabel: a.MinLabel, MaxLabel: a.MaxLabel}
}

type GenerateSubjectInput struct{}

type GenerateSubjectFromItemsInput struct {
	Items []string `json:"items" jsonschema:"exactly three example items"`
}

type GenerateAxesInput struct {
	Subject string    `json:"subject" jsonschema:"subject to map"`
	XAxis   AxisInput `json:"x_axis,omitempty" jsonschema:"pinned x-axis labels"`
	YAxis   AxisInput `json:"y_axis,omitempty" jsonschema:"pinned y-axis labels"`
}

type ManifestItemInput struct {
	Subject  string    `json:"subject" jsonschema:"subject of the map"`
	XAxis    AxisInput `json:"x_axis" jsonschema:"x-axis labels"`
	YAxis    AxisInput `json:"y_axis" jsonschema:"y-axis labels"`
	X        float64   `json:"x" jsonschema:"x coordinate between -100 and 100"`
	Y        float64   `json:"y" jsonschema:"y coordinate between -100 and 100"`
	Existing []string  `json:"existing,omitempty" jsonschema:"names already on the map"`
}

type PlaceItemInput struct {
	Subject  string    `json:"subject" jsonschema:"subject of the map"`
	XAxis    AxisInput `json:"x_axis" jsonschema:"x-axis labels"`
	YAxis    AxisInput `json:"y_axis" jsonschema:"y-axis labels"`
	ItemName string    `json:"item_name" jsonschema:"item to place"`
	Existing []string  `json:"existing,omitempty" jsonschema:"names already on the map"`
}

type SubjectOutput struct {
	Subject   string `json:"subject"`
	Reasoning string `json:"reasoning,omitempty"`
}

type AxisOutput struct {
	MinLabel string `json:"min_label"`
	MaxLabel string `json:"max_label"`
}

type AxesOutput struct {
	XAxis AxisOutput `json:"x_axis"`
	YAxis AxisOutput `json:"y_axis"`
}

type ManifestationOutput struct {
	ID                    string  `json:"id"`
	X                     float64 `json:"x"`
	Y                     float64 `json:"y"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	Reasoning             string  `json:"reasoning,omitempty"`
	ImageURL              string  `json:"image_url,omitempty"`
	Timestamp             string  `json:"timestamp"`
	IsHallucination       bool    `json:"is_hallucination"`
	IsImpossible          bool    `json:"is_impossible,omitempty"`
	ImpossibleExplanation string  `json:"impossible_explanation,omitempty"`
}

type PlacementOutput struct {
	CannotPlace     bool    `json:"cannot_place,omitempty"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Reasoning       string  `json:"reasoning,omitempty"`
	IsHallucination bool    `json:"is_hallucination"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_subject",
		Description: "Suggest a subject to explore as a two-dimensional map",
	}, s.handleGenerateSubject)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_subject_from_items",
		Description: "Infer the subject that three example items share",
	}, s.handleGenerateSubjectFromItems)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_axes",
		Description: "Generate two semantic axes for a subject; supplied labels are kept verbatim",
	}, s.handleGenerateAxes)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "manifest_item",
		Description: "Name the entity that occupies a coordinate, or report a boundary paradox",
	}, s.handleManifestItem)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "place_item",
		Description: "Find the coordinate of a named item, or explain why it cannot be placed",
	}, s.handlePlaceItem)
}

func (s *Server) handleGenerateSubject(ctx context.Context, req *sdk.CallToolRequest, input GenerateSubjectInput) (*sdk.CallToolResult, SubjectOutput, error) {
	res, err := s.ops.GenerateSubject(ctx)
	if err != nil {
		return nil, SubjectOutput{}, toolError(err)
	}
	return nil, SubjectOutput{Subject: res.Subject, Reasoning: res.Reasoning}, nil
}

func (s *Server) handleGenerateSubjectFromItems(ctx context.Context, req *sdk.CallToolRequest, input GenerateSubjectFromItemsInput) (*sdk.CallToolResult, SubjectOutput, error) {
	res, err := s.ops.GenerateSubjectFromItems(ctx, input.Items)
	if err != nil {
		return nil, SubjectOutput{}, toolError(err)
	}
	return nil, SubjectOutput{Subject: res.Subject, Reasoning: res.Reasoning}, nil
}

func (s *Server) handleGenerateAxes(ctx context.Context, req *sdk.CallToolRequest, input GenerateAxesInput) (*sdk.CallToolResult, AxesOutput, error) {
	res, err := s.ops.GenerateAxes(ctx, protocol.AxesRequest{
		Subject: input.Subject,
		XAxis:   input.XAxis.axis(),
		YAxis:   input.YAxis.axis(),
	})
	if err != nil {
		return nil, AxesOutput{}, toolError(err)
	}
	return nil, axesOutput(res.XAxis, res.YAxis), nil
}

func (s *Server) handleManifestItem(ctx context.Context, req *sdk.CallToolRequest, input ManifestItemInput) (*sdk.CallToolResult, ManifestationOutput, error) {
	m, err := s.ops.Manifest(ctx, protocol.ManifestRequest{
		Subject:  input.Subject,
		XAxis:    input.XAxis.axis(),
		YAxis:    input.YAxis.axis(),
		X:        input.X,
		Y:        input.Y,
		Existing: input.Existing,
	})
	if err != nil {
		return nil, ManifestationOutput{}, toolError(err)
	}
	return nil, manifestationOutput(m), nil
}

func (s *Server) handlePlaceItem(ctx context.Context, req *sdk.CallToolRequest, input PlaceItemInput) (*sdk.CallToolResult, PlacementOutput, error) {
	p, err := s.ops.Place(ctx, protocol.PlaceRequest{
		Subject:  input.Subject,
		XAxis:    input.XAxis.axis(),
		YAxis:    input.YAxis.axis(),
		ItemName: input.ItemName,
		Existing: input.Existing,
	})
	if err != nil {
		return nil, PlacementOutput{}, toolError(err)
	}
	if p.CannotPlace {
		s.logger.Debug("place_item refused", zap.String("item", input.ItemName))
	}
	return nil, PlacementOutput{
		CannotPlace:     p.CannotPlace,
		X:               p.X,
		Y:               p.Y,
		Name:            p.Name,
		Description:     p.Description,
		Reasoning:       p.Reasoning,
		IsHallucination: p.IsHallucination,
	}, nil
}

func axesOutput(x, y space.Axis) AxesOutput {
	return AxesOutput{
		XAxis: AxisOutput{MinLabel: x.MinLabel, MaxLabel: x.MaxLabel},
		YAxis: AxisOutput{MinLabel: y.MinLabel, MaxLabel: y.MaxLabel},
	}
}

func manifestationOutput(m space.Manifestation) ManifestationOutput {
	return ManifestationOutput{
		ID:                    m.ID,
		X:                     m.X,
		Y:                     m.Y,
		Name:                  m.Name,
		Description:           m.Description,
		Reasoning:             m.Reasoning,
		ImageURL:              m.ImageURL,
		Timestamp:             m.Timestamp.UTC().Format(time.RFC3339),
		IsHallucination:       m.IsHallucination,
		IsImpossible:          m.IsImpossible,
		ImpossibleExplanation: m.ImpossibleExplanation,
	}
}

func manifestationOutputs(ms []space.Manifestation) []ManifestationOutput {
	out := make([]ManifestationOutput, 0, len(ms))
	for _, m := range ms {
		out = append(out, manifestationOutput(m))
	}
	return out
}
