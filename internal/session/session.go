// Package session is the map state machine. It owns one CurioSpace and applies
// protocol results to it, keeping axis edits, manifestations and in-flight
// requests consistent.
//
// All mutation happens under a single mutex. Protocol calls run without the
// lock held; each one is tagged with the axis version it was issued against,
// and a result that arrives after the axes changed is discarded.
package session

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"curiospace/internal/apperr"
	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

// Protocol is the set of operations the session drives.
type Protocol interface {
	GenerateSubject(ctx context.Context) (protocol.SubjectResult, error)
	GenerateSubjectFromItems(ctx context.Context, items []string) (protocol.SubjectResult, error)
	GenerateAxes(ctx context.Context, req protocol.AxesRequest) (protocol.AxesResult, error)
	Manifest(ctx context.Context, req protocol.ManifestRequest) (space.Manifestation, error)
	Place(ctx context.Context, req protocol.PlaceRequest) (protocol.Placement, error)
}

type State string

const (
	StateEmpty     State = "empty"
	StateAxesReady State = "axes_ready"
)

// Notice is an informational card that is never added to the map.
type Notice struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PendingEdits holds axis labels the user changed since the last generation.
// Empty labels were not edited.
type PendingEdits struct {
	XAxis space.Axis `json:"xAxis"`
	YAxis space.Axis `json:"yAxis"`
}

func (p PendingEdits) empty() bool {
	return p == PendingEdits{}
}

// View is a copy of the session state, safe to hold after the call returns.
type View struct {
	State                State                 `json:"state"`
	Subject              string                `json:"subject,omitempty"`
	XAxis                space.Axis            `json:"xAxis"`
	YAxis                space.Axis            `json:"yAxis"`
	Manifestations       []space.Manifestation `json:"manifestations"`
	SubjectGeneratedFrom []string              `json:"subjectGeneratedFrom,omitempty"`
	Dirty                bool                  `json:"dirty"`
	Pending              PendingEdits          `json:"pendingEdits"`
	Selected             string                `json:"selected,omitempty"`
	Notice               *Notice               `json:"notice,omitempty"`
	LastError            string                `json:"lastError,omitempty"`
	GeneratingAxes       bool                  `json:"generatingAxes"`
	GeneratingItem       bool                  `json:"generatingItem"`
}

type Option func(*Session)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

type Session struct {
	proto  Protocol
	logger *zap.Logger
	now    func() time.Time

	mu            sync.Mutex
	space         *space.Space
	generatedFrom []string
	pending       PendingEdits
	dirty         bool
	selected      string
	notice        *Notice
	lastErr       string
	axesVersion   uint64
	axesBusy      bool
	itemBusy      bool
}

func New(p Protocol, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{proto: p, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:          StateEmpty,
		Manifestations: []space.Manifestation{},
		Dirty:          s.dirty,
		Pending:        s.pending,
		Selected:       s.selected,
		LastError:      s.lastErr,
		GeneratingAxes: s.axesBusy,
		GeneratingItem: s.itemBusy,
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	if s.space != nil {
		c := s.space.Clone()
		v.State = StateAxesReady
		v.Subject = c.Subject
		v.XAxis = c.XAxis
		v.YAxis = c.YAxis
		v.Manifestations = c.Manifestations
		v.SubjectGeneratedFrom = append([]string(nil), s.generatedFrom...)
	}
	return v
}

// Space returns a copy of the current CurioSpace, or nil when empty.
func (s *Session) Space() *space.Space {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.space.Clone()
}

// fail records err for display. Callers hold s.mu.
func (s *Session) fail(err error) error {
	s.lastErr = err.Error()
	return err
}

func (s *Session) failLocked(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail(err)
}

func busy(what string) error {
	return apperr.New(apperr.KindBusy, "%s already in progress", what)
}

func errStale() error {
	return apperr.New(apperr.KindInvalidState, "stale result: the axes changed while the request was in flight")
}

// beginAxes marks an axis-class call as outstanding. Callers hold s.mu.
func (s *Session) beginAxes() (uint64, error) {
	if s.axesBusy {
		return 0, s.fail(busy("axis generation"))
	}
	s.axesBusy = true
	s.lastErr = ""
	return s.axesVersion, nil
}

// commitAxes installs freshly generated axes, dropping every manifestation
// computed against the old ones. Callers hold s.mu.
func (s *Session) commitAxes(subject string, res protocol.AxesResult, generatedFrom []string) {
	now := s.now()
	if s.space == nil {
		s.space = space.New(subject, res.XAxis, res.YAxis, now)
	} else {
		s.space.Subject = subject
		s.space.SetAxes(res.XAxis, res.YAxis, now)
		s.space.ClearManifestations(now)
	}
	s.generatedFrom = generatedFrom
	s.pending = PendingEdits{}
	s.dirty = false
	s.selected = ""
	s.notice = nil
	s.axesVersion++
}

// GenerateAxes generates axes for subject, honoring any pinned labels. On
// success the manifestation set is cleared; on failure nothing changes.
func (s *Session) GenerateAxes(ctx context.Context, subject string, pinX, pinY space.Axis) (protocol.AxesResult, error) {
	s.mu.Lock()
	version, err := s.beginAxes()
	s.mu.Unlock()
	if err != nil {
		return protocol.AxesResult{}, err
	}
	return s.runAxes(ctx, version, strings.TrimSpace(subject), pinX, pinY, nil)
}

// runAxes performs the protocol call for an already begun axis-class call.
func (s *Session) runAxes(ctx context.Context, version uint64, subject string, pinX, pinY space.Axis, generatedFrom []string) (protocol.AxesResult, error) {
	res, err := s.proto.GenerateAxes(ctx, protocol.AxesRequest{Subject: subject, XAxis: pinX, YAxis: pinY})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.axesBusy = false
	if err != nil {
		return protocol.AxesResult{}, s.fail(err)
	}
	if version != s.axesVersion {
		s.logger.Info("discarding axes generated against a replaced map", zap.String("subject", subject))
		return protocol.AxesResult{}, s.fail(errStale())
	}
	s.commitAxes(subject, res, generatedFrom)
	s.logger.Info("axes ready", zap.String("subject", subject), zap.Uint64("axes_version", s.axesVersion))
	return res, nil
}

// EditAxisLabel applies a label edit immediately. A changed label invalidates
// every manifestation, so the set is cleared and the map is marked dirty until
// Regenerate runs.
func (s *Session) EditAxisLabel(axis space.AxisName, side space.Side, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.space == nil {
		return s.fail(apperr.New(apperr.KindInvalidState, "no subject: generate axes first"))
	}
	if s.axesBusy {
		return s.fail(busy("axis generation"))
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return s.fail(apperr.New(apperr.KindInvalidRequest, "axis label cannot be empty"))
	}
	if s.space.Axis(axis).Label(side) == label {
		return nil
	}

	now := s.now()
	s.space.SetLabel(axis, side, label, now)
	s.space.ClearManifestations(now)
	if axis == space.AxisX {
		s.pending.XAxis.SetLabel(side, label)
	} else {
		s.pending.YAxis.SetLabel(side, label)
	}
	s.dirty = true
	s.selected = ""
	s.notice = nil
	s.axesVersion++
	s.logger.Info("axis label edited",
		zap.String("axis", string(axis)),
		zap.String("side", string(side)),
		zap.String("label", label),
	)
	return nil
}

// Regenerate regenerates the axes, pinning only the labels edited since the
// last generation. Unedited sides are generated fresh.
func (s *Session) Regenerate(ctx context.Context) (protocol.AxesResult, error) {
	s.mu.Lock()
	if !s.dirty || s.pending.empty() || s.space == nil {
		err := s.fail(apperr.New(apperr.KindInvalidState, "no axis edits to regenerate from"))
		s.mu.Unlock()
		return protocol.AxesResult{}, err
	}
	version, err := s.beginAxes()
	if err != nil {
		s.mu.Unlock()
		return protocol.AxesResult{}, err
	}
	subject := s.space.Subject
	pending := s.pending
	generatedFrom := s.generatedFrom
	s.mu.Unlock()

	return s.runAxes(ctx, version, subject, pending.XAxis, pending.YAxis, generatedFrom)
}

// GenerateRandom picks a subject and generates axes for it.
func (s *Session) GenerateRandom(ctx context.Context) (protocol.AxesResult, error) {
	s.mu.Lock()
	version, err := s.beginAxes()
	s.mu.Unlock()
	if err != nil {
		return protocol.AxesResult{}, err
	}

	subj, err := s.proto.GenerateSubject(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.axesBusy = false
		return protocol.AxesResult{}, s.fail(err)
	}
	return s.runAxes(ctx, version, subj.Subject, space.Axis{}, space.Axis{}, nil)
}

// ManifestAt asks what occupies (x, y) and upserts the answer, paradoxes
// included. The new entry becomes the selection.
func (s *Session) ManifestAt(ctx context.Context, x, y float64) (space.Manifestation, error) {
	s.mu.Lock()
	switch {
	case s.space == nil:
		err := s.fail(apperr.New(apperr.KindInvalidState, "no subject: generate axes first"))
		s.mu.Unlock()
		return space.Manifestation{}, err
	case s.dirty:
		err := s.fail(apperr.New(apperr.KindInvalidState, "axes were edited: regenerate before manifesting"))
		s.mu.Unlock()
		return space.Manifestation{}, err
	case s.axesBusy:
		err := s.fail(busy("axis generation"))
		s.mu.Unlock()
		return space.Manifestation{}, err
	case s.itemBusy:
		err := s.fail(busy("item generation"))
		s.mu.Unlock()
		return space.Manifestation{}, err
	}
	req := protocol.ManifestRequest{
		Subject:  s.space.Subject,
		XAxis:    s.space.XAxis,
		YAxis:    s.space.YAxis,
		X:        x,
		Y:        y,
		Existing: s.space.Names(),
	}
	version := s.axesVersion
	s.itemBusy = true
	s.lastErr = ""
	s.mu.Unlock()

	m, err := s.proto.Manifest(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemBusy = false
	if err != nil {
		return space.Manifestation{}, s.fail(err)
	}
	if version != s.axesVersion || s.space == nil {
		s.logger.Info("discarding stale manifestation", zap.String("name", m.Name))
		return space.Manifestation{}, s.fail(errStale())
	}
	s.space.Upsert(m, s.now())
	s.selected = m.ID
	s.notice = nil
	return m, nil
}

// PlaceResult is the outcome of PlaceItem: exactly one of the fields is set.
type PlaceResult struct {
	Manifestation *space.Manifestation `json:"manifestation,omitempty"`
	Notice        *Notice              `json:"notice,omitempty"`
}

// PlaceItem asks where name belongs and upserts it. A cannot-place verdict
// leaves the set alone and is kept as the session notice.
func (s *Session) PlaceItem(ctx context.Context, name string) (PlaceResult, error) {
	s.mu.Lock()
	switch {
	case s.space == nil:
		err := s.fail(apperr.New(apperr.KindInvalidState, "no subject: generate axes first"))
		s.mu.Unlock()
		return PlaceResult{}, err
	case s.axesBusy:
		err := s.fail(busy("axis generation"))
		s.mu.Unlock()
		return PlaceResult{}, err
	case s.itemBusy:
		err := s.fail(busy("item generation"))
		s.mu.Unlock()
		return PlaceResult{}, err
	}
	req := protocol.PlaceRequest{
		Subject:  s.space.Subject,
		XAxis:    s.space.XAxis,
		YAxis:    s.space.YAxis,
		ItemName: name,
		Existing: s.space.Names(),
	}
	version := s.axesVersion
	s.itemBusy = true
	s.lastErr = ""
	s.mu.Unlock()

	p, err := s.proto.Place(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemBusy = false
	if err != nil {
		return PlaceResult{}, s.fail(err)
	}
	if version != s.axesVersion || s.space == nil {
		s.logger.Info("discarding stale placement", zap.String("item", name))
		return PlaceResult{}, s.fail(errStale())
	}
	return s.applyPlacement(p), nil
}

// applyPlacement records a placement outcome. Callers hold s.mu.
func (s *Session) applyPlacement(p protocol.Placement) PlaceResult {
	if p.CannotPlace {
		n := &Notice{Name: p.Name, Description: p.Description}
		s.notice = n
		cp := *n
		return PlaceResult{Notice: &cp}
	}
	m := p.Manifestation(s.now())
	s.space.Upsert(m, m.Timestamp)
	s.selected = m.ID
	s.notice = nil
	return PlaceResult{Manifestation: &m}
}

// DeleteManifestation removes an entry by id.
func (s *Session) DeleteManifestation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.space == nil || !s.space.Delete(id, s.now()) {
		return s.fail(apperr.New(apperr.KindNotFound, "no manifestation with id %q", id))
	}
	if s.selected == id {
		s.selected = ""
	}
	return nil
}

// Select marks an entry as selected. An empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selected = ""
		return nil
	}
	if s.space == nil {
		return s.fail(apperr.New(apperr.KindNotFound, "no manifestation with id %q", id))
	}
	if _, ok := s.space.Find(id); !ok {
		return s.fail(apperr.New(apperr.KindNotFound, "no manifestation with id %q", id))
	}
	s.selected = id
	return nil
}

func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// Reset returns to the empty state. Results of calls still in flight are
// discarded when they arrive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space = nil
	s.generatedFrom = nil
	s.pending = PendingEdits{}
	s.dirty = false
	s.selected = ""
	s.notice = nil
	s.lastErr = ""
	s.axesVersion++
	s.logger.Info("session reset")
}

// Snapshot captures the current map for export.
func (s *Session) Snapshot() (space.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.space == nil {
		return space.Snapshot{}, s.fail(apperr.New(apperr.KindInvalidState, "nothing to save: the map is empty"))
	}
	return space.NewSnapshot(s.space.Clone(), s.generatedFrom, s.now()), nil
}

// SaveSnapshot writes the current map to dir under a generated file name and
// returns the path written.
func (s *Session) SaveSnapshot(dir string) (string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return "", err
	}
	name := space.SnapshotFileName(snap.Subject, snap.SavedAt)
	if filepath.Base(name) != name {
		return "", s.failLocked(apperr.New(apperr.KindInvalidRequest, "snapshot name %q is not a plain file name", name))
	}
	path := filepath.Join(dir, name)
	if err := space.WriteSnapshotFile(path, snap); err != nil {
		return "", s.failLocked(err)
	}
	s.logger.Info("snapshot saved", zap.String("path", path))
	return path, nil
}

// LoadSnapshot replaces the map wholesale with the decoded snapshot. A
// snapshot that fails validation leaves the session untouched.
func (s *Session) LoadSnapshot(data []byte) error {
	snap, err := space.DecodeSnapshot(data)
	if err != nil {
		return s.failLocked(err)
	}
	s.install(snap)
	return nil
}

// LoadSnapshotFile reads and installs a snapshot file.
func (s *Session) LoadSnapshotFile(path string) error {
	snap, err := space.ReadSnapshotFile(path)
	if err != nil {
		return s.failLocked(err)
	}
	s.install(snap)
	s.logger.Info("snapshot loaded", zap.String("path", path))
	return nil
}

func (s *Session) install(snap *space.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space = snap.ToSpace(s.now())
	if dropped := len(snap.Manifestations) - len(s.space.Manifestations); dropped > 0 {
		s.logger.Warn("snapshot had entries sharing a coordinate, kept the last of each",
			zap.Int("dropped", dropped))
	}
	s.generatedFrom = append([]string(nil), snap.SubjectGeneratedFrom...)
	s.pending = PendingEdits{}
	s.dirty = false
	s.selected = ""
	s.notice = nil
	s.lastErr = ""
	s.axesVersion++
}
