package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/vet-consult-scheduling/internal/apperrors"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/availability"
	"github.com/hackgods/vet-consult-scheduling/internal/booking"
	"github.com/hackgods/vet-consult-scheduling/internal/consultation"
	"github.com/hackgods/vet-consult-scheduling/internal/logging"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
	"github.com/hackgods/vet-consult-scheduling/internal/videosession"
)

type handlers struct {
	schedule      *schedule.Service
	availability  *availability.Calculator
	bookings      *booking.Service
	consultations *consultation.Service
	videoSessions *videosession.Service
	validate      *Validator
	logger        zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// fail maps a service error onto the HTTP error contract.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	}

	kind := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindValidation:
		writeError(w, http.StatusBadRequest, string(kind), apperrors.MessageOf(err))
	case apperrors.KindForbidden:
		writeError(w, http.StatusForbidden, string(kind), apperrors.MessageOf(err))
	case apperrors.KindNotFound:
		writeError(w, http.StatusNotFound, string(kind), apperrors.MessageOf(err))
	case apperrors.KindConflict:
		writeError(w, http.StatusConflict, string(kind), apperrors.MessageOf(err))
	default:
		logging.FromContext(r.Context(), h.logger).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, string(apperrors.KindInternal), "internal error")
	}
}

// decode reads and validates a JSON body. With optional set an empty body
// leaves dst at its zero value.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return false
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(apperrors.KindValidation), h.validate.Describe(err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func actorOf(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
	}
	return actor, ok
}

// optionalUUID parses an already validated, possibly empty, uuid string.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}
