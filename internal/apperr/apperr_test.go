package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindSentinel(t *testing.T) {
	err := New(KindMalformedResponse, "missing field %q", "minLabel")
	wrapped := fmt.Errorf("generate axes: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMalformedResponse))
	assert.False(t, errors.Is(wrapped, ErrService))
	assert.Equal(t, `missing field "minLabel"`, err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindService, KindOf(errors.New("plain")))
	assert.Equal(t, KindBusy, KindOf(New(KindBusy, "busy")))

	joined := errors.Join(errors.New("axis generation failed"), Wrap(KindService, errors.New("dial"), "completion failed"))
	assert.Equal(t, KindService, KindOf(joined))
}

func TestRateLimited(t *testing.T) {
	err := fmt.Errorf("manifest: %w", RateLimited(60*time.Second, nil))

	d, ok := RetryAfter(err)
	assert.True(t, ok)
	assert.Equal(t, 60*time.Second, d)
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))

	_, ok = RetryAfter(New(KindService, "down"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidRequest:    http.StatusBadRequest,
		KindInvalidFileFormat: http.StatusBadRequest,
		KindNotFound:          http.StatusNotFound,
		KindBusy:              http.StatusConflict,
		KindInvalidState:      http.StatusConflict,
		KindMalformedResponse: http.StatusBadGateway,
		KindService:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), kind)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unclassified")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(KindService, errors.New("connection reset"), "completion failed")
	assert.Equal(t, "completion failed: connection reset", err.Error())
	assert.Equal(t, "BUSY", (&Error{Kind: KindBusy}).Error())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Rate limited by the model service. Wait 60 seconds and try again.",
		UserMessage(RateLimited(60*time.Second, nil)))
	assert.Equal(t, "The model service failed. Try again.", UserMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, "subject is required", UserMessage(New(KindInvalidRequest, "subject is required")))
}
