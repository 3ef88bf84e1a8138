// Package completiontest provides a scripted completer for tests.
package completiontest

import (
	"context"
	"errors"
	"sync"
)

// ErrExhausted is returned once every scripted reply has been used.
var ErrExhausted = errors.New("completiontest: no scripted replies left")

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Scripted returns its replies in order and records every prompt it saw.
// It is safe for concurrent use.
//
//	c := completiontest.New(
//	    completiontest.Text(`{"subject":"Jazz Musicians"}`),
//	    completiontest.Fail(errors.New("boom")),
//	)
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string

	// Gate, when set, blocks each call until it receives a value or ctx ends.
	Gate chan struct{}
}

func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

func Text(s string) Reply { return Reply{Text: s} }

func Fail(err error) Reply { return Reply{Err: err} }

func (s *Scripted) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *Scripted) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return "", ErrExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Text, r.Err
}

// Prompts returns a copy of every prompt received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
