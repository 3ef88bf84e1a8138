package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"curiospace/internal/apperr"
	"curiospace/internal/protocol"
	"curiospace/internal/space"
)

const maxBodyBytes = 1 << 20

type subjectFromItemsRequest struct {
	Items []string `json:"items" validate:"required,len=3,dive,required"`
}

type generateAxesRequest struct {
	Subject string      `json:"subject" validate:"required"`
	XAxis   *space.Axis `json:"xAxis"`
	YAxis   *space.Axis `json:"yAxis"`
}

type manifestItemRequest struct {
	Subject  string     `json:"subject" validate:"required"`
	XAxis    space.Axis `json:"xAxis"`
	YAxis    space.Axis `json:"yAxis"`
	X        *float64   `json:"x" validate:"required,gte=-100,lte=100"`
	Y        *float64   `json:"y" validate:"required,gte=-100,lte=100"`
	Existing []string   `json:"existingManifestations"`
}

type placeItemRequest struct {
	Subject  string     `json:"subject" validate:"required"`
	XAxis    space.Axis `json:"xAxis"`
	YAxis    space.Axis `json:"yAxis"`
	ItemName string     `json:"itemName" validate:"required"`
	Existing []string   `json:"existingManifestations"`
}

type cannotPlaceResponse struct {
	CannotPlace bool   `json:"cannotPlace"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

type handler struct {
	ops    Operations
	logger *zap.Logger
}

func (h *handler) generateSubject(w http.ResponseWriter, r *http.Request) {
	res, err := h.ops.GenerateSubject(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *handler) generateSubjectFromItems(w http.ResponseWriter, r *http.Request) {
	var req subjectFromItemsRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.ops.GenerateSubjectFromItems(r.Context(), req.Items)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *handler) generateAxes(w http.ResponseWriter, r *http.Request) {
	var req generateAxesRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := protocol.AxesRequest{Subject: req.Subject}
	if req.XAxis != nil {
		in.XAxis = *req.XAxis
	}
	if req.YAxis != nil {
		in.YAxis = *req.YAxis
	}
	res, err := h.ops.GenerateAxes(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *handler) manifestItem(w http.ResponseWriter, r *http.Request) {
	var req manifestItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.ops.Manifest(r.Context(), protocol.ManifestRequest{
		Subject:  req.Subject,
		XAxis:    req.XAxis,
		YAxis:    req.YAxis,
		X:        *req.X,
		Y:        *req.Y,
		Existing: req.Existing,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, m)
}

func (h *handler) placeItem(w http.ResponseWriter, r *http.Request) {
	var req placeItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.ops.Place(r.Context(), protocol.PlaceRequest{
		Subject:  req.Subject,
		XAxis:    req.XAxis,
		YAxis:    req.YAxis,
		ItemName: req.ItemName,
		Existing: req.Existing,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if p.CannotPlace {
		h.respondJSON(w, http.StatusOK, cannotPlaceResponse{
			CannotPlace: true,
			Name:        p.Name,
			Description: p.Description,
		})
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

// decode reads and validates a JSON body, writing the error response itself
// when it fails.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		h.respondError(w, r, apperr.Wrap(apperr.KindInvalidRequest, err, "invalid request body"))
		return false
	}
	if err := validateStruct(v); err != nil {
		h.respondError(w, r, err)
		return false
	}
	return true
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	if d, ok := apperr.RetryAfter(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())))
	}
	h.respondJSON(w, status, errorResponse{
		Error: apperr.UserMessage(err),
		Kind:  apperr.KindOf(err),
	})
}
