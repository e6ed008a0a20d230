package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/totymark/totymark/internal/common"
)

const (
	detailUnauthorized = "could not validate credentials"
	detailInternal     = "internal server error"
	detailDuplicate    = "username already registered"
	detailNotFound     = "not found"
	detailForbidden    = "not allowed"
	detailTooMany      = "too many requests"
	detailMailDisabled = "email delivery is not configured"
	detailDelivery     = "notification delivery failed"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSONStatus(w, code, detailResponse{Detail: detail})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	writeDetail(w, http.StatusUnauthorized, detailUnauthorized)
}

func tooMany(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	writeDetail(w, http.StatusTooManyRequests, detailTooMany)
}

// writeError maps service sentinels to status codes. Only validation reasons
// reach the client verbatim; everything unknown is a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeDetail(w, http.StatusUnprocessableEntity, verr.Reason)
	case errors.Is(err, common.ErrorValidation):
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request")
	case errors.Is(err, common.ErrDuplicateUsername):
		writeDetail(w, http.StatusBadRequest, detailDuplicate)
	case errors.Is(err, common.ErrorUnauthorized):
		unauthorized(w)
	case errors.Is(err, common.ErrorForbidden):
		writeDetail(w, http.StatusForbidden, detailForbidden)
	case errors.Is(err, common.ErrorNotFound):
		writeDetail(w, http.StatusNotFound, detailNotFound)
	case errors.Is(err, common.ErrMailerDisabled):
		writeDetail(w, http.StatusServiceUnavailable, detailMailDisabled)
	case errors.Is(err, common.ErrDeliveryFailed):
		writeDetail(w, http.StatusBadGateway, detailDelivery)
	default:
		if !errors.Is(err, common.ErrorInternal) {
			s.logger.Error(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		}
		writeDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeJSON reads a single JSON object from a size-limited body and rejects
// unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return &common.ValidationError{Reason: "content type must be application/json"}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &common.ValidationError{Reason: fmt.Sprintf("invalid JSON body: %s", jsonReason(err))}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &common.ValidationError{Reason: "invalid JSON body: trailing data"}
	}
	return nil
}

func jsonReason(err error) string {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return "empty body"
	case errors.As(err, &syn):
		return "malformed"
	case errors.As(err, &typ):
		return fmt.Sprintf("field %q has the wrong type", typ.Field)
	case errors.As(err, &tooBig):
		return "too large"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return "malformed"
	}
}
