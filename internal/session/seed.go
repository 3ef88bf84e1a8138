package session

import (
	"context"

	"go.uber.org/zap"

	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

// SeedSkip is a seed item that did not land on the map.
type SeedSkip struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

type SeedResult struct {
	Subject   string                `json:"subject"`
	Reasoning string                `json:"reasoning,omitempty"`
	Axes      protocol.AxesResult   `json:"axes"`
	Placed    []space.Manifestation `json:"placed"`
	Skipped   []SeedSkip            `json:"skipped,omitempty"`
}

// SeedFromItems builds a whole map from three items: it infers their common
// subject, generates unpinned axes for it, then places each item in order.
// A failed subject or axis step leaves the session unchanged; a failed or
// refused item is recorded in the result and the rest still get placed.
//
// Both operation classes stay busy for the whole seed.
func (s *Session) SeedFromItems(ctx context.Context, items []string) (SeedResult, error) {
	cleaned, err := protocol.SeedItems(items)
	if err != nil {
		return SeedResult{}, s.failLocked(err)
	}

	s.mu.Lock()
	if s.itemBusy {
		err := s.fail(busy("item generation"))
		s.mu.Unlock()
		return SeedResult{}, err
	}
	version, err := s.beginAxes()
	if err != nil {
		s.mu.Unlock()
		return SeedResult{}, err
	}
	s.itemBusy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.axesBusy = false
		s.itemBusy = false
		s.mu.Unlock()
	}()

	subj, err := s.proto.GenerateSubjectFromItems(ctx, cleaned)
	if err != nil {
		return SeedResult{}, s.failLocked(err)
	}
	axes, err := s.proto.GenerateAxes(ctx, protocol.AxesRequest{Subject: subj.Subject})
	if err != nil {
		return SeedResult{}, s.failLocked(err)
	}

	s.mu.Lock()
	if version != s.axesVersion {
		err := s.fail(errStale())
		s.mu.Unlock()
		return SeedResult{}, err
	}
	s.commitAxes(subj.Subject, axes, cleaned)
	version = s.axesVersion
	s.mu.Unlock()

	result := SeedResult{
		Subject:   subj.Subject,
		Reasoning: subj.Reasoning,
		Axes:      axes,
		Placed:    []space.Manifestation{},
	}
	for _, item := range cleaned {
		s.mu.Lock()
		if version != s.axesVersion || s.space == nil {
			s.mu.Unlock()
			result.Skipped = append(result.Skipped, SeedSkip{Item: item, Reason: errStale().Error()})
			continue
		}
		req := protocol.PlaceRequest{
			Subject:  s.space.Subject,
			XAxis:    s.space.XAxis,
			YAxis:    s.space.YAxis,
			ItemName: item,
			Existing: s.space.Names(),
		}
		s.mu.Unlock()

		p, err := s.proto.Place(ctx, req)
		if err != nil {
			s.logger.Warn("seed item failed", zap.String("item", item), zap.Error(err))
			result.Skipped = append(result.Skipped, SeedSkip{Item: item, Reason: err.Error()})
			continue
		}

		s.mu.Lock()
		if version != s.axesVersion || s.space == nil {
			s.mu.Unlock()
			result.Skipped = append(result.Skipped, SeedSkip{Item: item, Reason: errStale().Error()})
			continue
		}
		out := s.applyPlacement(p)
		s.mu.Unlock()

		if out.Notice != nil {
			s.logger.Info("seed item cannot be placed", zap.String("item", item))
			result.Skipped = append(result.Skipped, SeedSkip{Item: item, Reason: out.Notice.Description})
			continue
		}
		result.Placed = append(result.Placed, *out.Manifestation)
	}

	s.logger.Info("seeded map from items",
		zap.String("subject", result.Subject),
		zap.Int("placed", len(result.Placed)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
