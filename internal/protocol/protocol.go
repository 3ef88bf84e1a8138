// Package protocol implements the coordinate-semantics operations: subject
// generation, axis generation with pinned labels, coordinate manifestation
// and item placement. Operations are pure with respect to map state; the
// session applies their results.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"curiospace/internal/apperr"
	"curiospace/internal/completion"
	"curiospace/internal/prompt"
	"curiospace/internal/response"
	"curiospace/internal/space"
)

// ErrAxisGenerationFailed is joined with the underlying error when the
// completion service fails during axis generation.
var ErrAxisGenerationFailed = errors.New("axis generation failed")

// SeedItemCount is the number of items GenerateSubjectFromItems requires.
const SeedItemCount = 3

// Service runs protocol operations against a text-completion service.
type Service struct {
	completer completion.Completer
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(c completion.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: c, logger: logger, now: time.Now}
}

// WithClock returns a copy of the service that stamps results with now.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

type SubjectResult struct {
	Subject   string `json:"subject"`
	Reasoning string `json:"reasoning,omitempty"`
}

type AxesRequest struct {
	Subject string
	XAxis   space.Axis
	YAxis   space.Axis
}

type AxesResult struct {
	XAxis space.Axis `json:"xAxis"`
	YAxis space.Axis `json:"yAxis"`
}

type ManifestRequest struct {
	Subject  string
	XAxis    space.Axis
	YAxis    space.Axis
	X        float64
	Y        float64
	Existing []string
}

type PlaceRequest struct {
	Subject  string
	XAxis    space.Axis
	YAxis    space.Axis
	ItemName string
	Existing []string
}

// Placement is the outcome of placing an item. When CannotPlace is set,
// Name is the fixed card title and Description holds the explanation.
type Placement struct {
	CannotPlace     bool    `json:"cannotPlace,omitempty"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Reasoning       string  `json:"reasoning"`
	IsHallucination bool    `json:"isHallucination"`
}

// Manifestation converts a successful placement into a map entry.
func (p Placement) Manifestation(now time.Time) space.Manifestation {
	return space.NewManifestation(p.X, p.Y, p.Name, p.Description, p.Reasoning, "", now)
}

func cannotPlace(explanation string) Placement {
	return Placement{CannotPlace: true, Name: space.CannotPlaceName, Description: explanation}
}

func (s *Service) complete(ctx context.Context, op, p string) (string, error) {
	ctx = completion.WithOperation(ctx, op)
	text, err := s.completer.Complete(ctx, p)
	if err != nil {
		s.logger.Warn("completion failed",
			zap.String("operation", op),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}

// GenerateSubject asks for one explorable subject.
func (s *Service) GenerateSubject(ctx context.Context) (SubjectResult, error) {
	text, err := s.complete(ctx, "generate_subject", prompt.Subject())
	if err != nil {
		return SubjectResult{}, err
	}
	subj, err := response.DecodeSubject(text)
	if err != nil {
		return SubjectResult{}, err
	}
	s.logger.Info("subject generated", zap.String("subject", subj.Subject))
	return SubjectResult{Subject: subj.Subject}, nil
}

// GenerateSubjectFromItems infers the subject three items share. Exactly
// three items are required and none may be blank.
func (s *Service) GenerateSubjectFromItems(ctx context.Context, items []string) (SubjectResult, error) {
	cleaned, err := SeedItems(items)
	if err != nil {
		return SubjectResult{}, err
	}
	text, err := s.complete(ctx, "generate_subject_from_items", prompt.SubjectFromItems(cleaned))
	if err != nil {
		return SubjectResult{}, err
	}
	subj, err := response.DecodeSubject(text)
	if err != nil {
		return SubjectResult{}, err
	}
	s.logger.Info("subject generated from items",
		zap.String("subject", subj.Subject),
		zap.Strings("items", cleaned),
	)
	return SubjectResult{Subject: subj.Subject, Reasoning: subj.Reasoning}, nil
}

// SeedItems trims items and checks there are exactly three non-blank ones.
func SeedItems(items []string) ([]string, error) {
	if len(items) != SeedItemCount {
		return nil, apperr.New(apperr.KindInvalidRequest, "exactly %d items are required, got %d", SeedItemCount, len(items))
	}
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) != SeedItemCount {
		return nil, apperr.New(apperr.KindInvalidRequest, "all %d items must be non-empty", SeedItemCount)
	}
	return cleaned, nil
}

// GenerateAxes fills in both axes for a subject. Supplied labels are pinned:
// they come back exactly as given even if the model alters them, and a
// generated counterpart must differ from its pinned opposite.
func (s *Service) GenerateAxes(ctx context.Context, req AxesRequest) (AxesResult, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return AxesResult{}, apperr.New(apperr.KindInvalidRequest, "subject is required")
	}

	pinX, pinY := pins(req.XAxis), pins(req.YAxis)
	text, err := s.complete(ctx, "generate_axes", prompt.Axes(subject, pinX, pinY))
	if err != nil {
		return AxesResult{}, fmt.Errorf("%w: %w", ErrAxisGenerationFailed, err)
	}
	gotX, gotY, err := response.DecodeAxes(text)
	if err != nil {
		return AxesResult{}, err
	}

	x, err := s.reconcile(space.AxisX, pinX, gotX)
	if err != nil {
		return AxesResult{}, err
	}
	y, err := s.reconcile(space.AxisY, pinY, gotY)
	if err != nil {
		return AxesResult{}, err
	}

	s.logger.Info("axes generated",
		zap.String("subject", subject),
		zap.String("x_min", x.MinLabel), zap.String("x_max", x.MaxLabel),
		zap.String("y_min", y.MinLabel), zap.String("y_max", y.MaxLabel),
	)
	return AxesResult{XAxis: x, YAxis: y}, nil
}

func pinned(label string) bool {
	return strings.TrimSpace(label) != ""
}

// pins drops blank labels so they read as unsupplied.
func pins(a space.Axis) space.Axis {
	if !pinned(a.MinLabel) {
		a.MinLabel = ""
	}
	if !pinned(a.MaxLabel) {
		a.MaxLabel = ""
	}
	return a
}

// reconcile applies pinned labels over a generated axis.
func (s *Service) reconcile(name space.AxisName, pin, got space.Axis) (space.Axis, error) {
	out := got
	for _, side := range []space.Side{space.SideMin, space.SideMax} {
		want := pin.Label(side)
		if !pinned(want) || got.Label(side) == want {
			continue
		}
		s.logger.Warn("model altered a pinned axis label",
			zap.String("axis", string(name)),
			zap.String("side", string(side)),
			zap.String("pinned", want),
			zap.String("returned", got.Label(side)),
		)
		out.SetLabel(side, want)
	}

	if pinned(pin.MinLabel) && pinned(pin.MaxLabel) {
		return out, nil
	}
	if strings.EqualFold(strings.TrimSpace(out.MinLabel), strings.TrimSpace(out.MaxLabel)) {
		return space.Axis{}, apperr.New(apperr.KindMalformedResponse,
			"%s axis labels are not opposites: both %q", name, out.MinLabel)
	}
	return out, nil
}

func checkAxes(subject string, x, y space.Axis) error {
	if strings.TrimSpace(subject) == "" {
		return apperr.New(apperr.KindInvalidRequest, "subject is required")
	}
	if !x.Complete() || !y.Complete() {
		return apperr.New(apperr.KindInvalidRequest, "both axes need a min and max label")
	}
	return nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if t := strings.TrimSpace(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Manifest asks which entity occupies (x, y). The result is either a placed
// entry or a boundary-paradox entry; a name already on the map is rejected.
func (s *Service) Manifest(ctx context.Context, req ManifestRequest) (space.Manifestation, error) {
	if err := checkAxes(req.Subject, req.XAxis, req.YAxis); err != nil {
		return space.Manifestation{}, err
	}
	if !space.InRange(req.X) || !space.InRange(req.Y) {
		return space.Manifestation{}, apperr.New(apperr.KindInvalidRequest,
			"coordinates must be numbers between %d and %d", int(space.MinCoordinate), int(space.MaxCoordinate))
	}
	x, y := space.Snap(req.X), space.Snap(req.Y)
	existing := cleanNames(req.Existing)

	p := prompt.Manifestation(strings.TrimSpace(req.Subject), req.XAxis, req.YAxis, x, y, existing)
	text, err := s.complete(ctx, "manifest", p)
	if err != nil {
		return space.Manifestation{}, err
	}
	got, err := response.DecodeManifestation(text)
	if err != nil {
		return space.Manifestation{}, err
	}

	now := s.now()
	if got.Impossible {
		s.logger.Info("coordinate is a boundary paradox", zap.Float64("x", x), zap.Float64("y", y))
		return space.NewImpossible(x, y, got.Explanation, now), nil
	}
	if space.ContainsName(existing, got.Name) {
		s.logger.Warn("model returned a name already on the map", zap.String("name", got.Name))
		return space.Manifestation{}, apperr.New(apperr.KindMalformedResponse,
			"model returned %q, which is already on the map", got.Name)
	}

	m := space.NewManifestation(x, y, got.Name, got.Description, got.Reasoning, space.PlaceholderImageURL(got.Name), now)
	s.logger.Info("coordinate manifested",
		zap.String("name", m.Name),
		zap.Float64("x", x), zap.Float64("y", y),
		zap.Bool("hallucination", m.IsHallucination),
	)
	return m, nil
}

// Place asks where an item belongs on the map. Items already on the map
// cannot be placed again and never reach the model.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (Placement, error) {
	if err := checkAxes(req.Subject, req.XAxis, req.YAxis); err != nil {
		return Placement{}, err
	}
	item := strings.TrimSpace(req.ItemName)
	if item == "" {
		return Placement{}, apperr.New(apperr.KindInvalidRequest, "item name is required")
	}
	existing := cleanNames(req.Existing)
	if space.ContainsName(existing, item) {
		s.logger.Info("item already on the map", zap.String("item", item))
		return cannotPlace(fmt.Sprintf("%q is already on the map.", item)), nil
	}

	p := prompt.Placement(strings.TrimSpace(req.Subject), req.XAxis, req.YAxis, item, existing)
	text, err := s.complete(ctx, "place", p)
	if err != nil {
		return Placement{}, err
	}
	got, err := response.DecodePlacement(text)
	if err != nil {
		return Placement{}, err
	}
	if got.CannotPlace {
		explanation := got.Explanation
		if strings.TrimSpace(explanation) == "" {
			explanation = fmt.Sprintf("%q cannot be placed in this space.", item)
		}
		s.logger.Info("item cannot be placed", zap.String("item", item))
		return cannotPlace(explanation), nil
	}

	x, y := got.X, got.Y
	if !space.InRange(x) || !space.InRange(y) {
		s.logger.Warn("placement outside the map, clamping",
			zap.String("item", item), zap.Float64("x", x), zap.Float64("y", y))
		x, y = space.Clamp(x), space.Clamp(y)
	}
	x, y = space.Snap(x), space.Snap(y)

	name := strings.TrimSpace(got.Name)
	if name == "" {
		name = item
	}
	if !strings.EqualFold(name, item) && space.ContainsName(existing, name) {
		s.logger.Warn("model returned a name already on the map", zap.String("item", item), zap.String("name", name))
		return Placement{}, apperr.New(apperr.KindMalformedResponse,
			"model returned %q, which is already on the map", name)
	}
	s.logger.Info("item placed", zap.String("name", name), zap.Float64("x", x), zap.Float64("y", y))
	return Placement{
		X:               x,
		Y:               y,
		Name:            name,
		Description:     got.Description,
		Reasoning:       got.Reasoning,
		IsHallucination: space.IsHallucination(x, y),
	}, nil
}
