package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/niksmo/e-label/internal/core/domain"
)

const maxJSONBody = 1 << 20

var (
	errInvalidJSON = errors.New("invalid JSON data")
	errNoWorkbook  = errors.New("workbook is missing")
)

// badRequestErrs are answered with their own text and status 400.
var badRequestErrs = []error{
	errInvalidJSON, errNoWorkbook, domain.ErrInvalidWorkbook,
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeData(w http.ResponseWriter, log *slog.Logger, status int, data any) {
	writeJSON(w, log, status, successResponse{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, log *slog.Logger, data any, count int) {
	writeJSON(w, log, http.StatusOK, successResponse{
		Success: true, Data: data, Count: &count,
	})
}

func writeMessage(w http.ResponseWriter, log *slog.Logger, msg string) {
	writeJSON(w, log, http.StatusOK, successResponse{Success: true, Message: msg})
}

func writeNotFound(w http.ResponseWriter, log *slog.Logger, msg string) {
	writeJSON(w, log, http.StatusNotFound, errorResponse{Error: msg})
}

// writeError maps err to a status code. Unexpected errors are logged and
// answered with a generic body.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("validation failed", "err", err)
		writeJSON(w, log, http.StatusBadRequest, errorResponse{
			Error:   "Validation failed",
			Details: fieldErrorsFromDomain(vErr.Fields),
		})
	case badRequest(err) != nil:
		log.Warn("bad request", "err", err)
		writeJSON(w, log, http.StatusBadRequest, errorResponse{
			Error: badRequest(err).Error(),
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, log, http.StatusUnauthorized, errorResponse{
			Error: "Invalid credentials",
		})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, log, http.StatusUnauthorized, errorResponse{
			Error: "Authentication required",
		})
	case errors.Is(err, domain.ErrUserExists):
		writeJSON(w, log, http.StatusConflict, errorResponse{
			Error: "User already exists",
		})
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, log, http.StatusInternalServerError, errorResponse{
			Error: "Internal server error",
		})
	}
}

// decodeObject reads a JSON object body keeping numbers as json.Number.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var raw map[string]any
	if err := decodeJSON(w, r, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected object", errInvalidJSON)
	}
	return raw, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errInvalidJSON)
	}
	return nil
}

func badRequest(err error) error {
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
