package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/validator"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondData(w http.ResponseWriter, status int, data any, message string) {
	respondJSON(w, status, model.Envelope{Success: true, Data: data, Message: message})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, model.Envelope{Success: false, Error: code, Message: message})
}

// statusFor maps an error to its HTTP status and envelope code. Anything that
// is not a known domain error is an unhandled fault.
func statusFor(err error) (int, string) {
	var (
		valErr      *model.ValidationError
		notFoundErr *model.NotFoundError
		conflictErr *model.ConflictError
		decodeErr   *validator.DecodeError
		tooLargeErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge, model.CodeInvalidBody
	case errors.As(err, &valErr):
		return http.StatusBadRequest, model.CodeValidation
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, model.CodeInvalidBody
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, model.CodeNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict, model.CodeConflict
	default:
		return http.StatusInternalServerError, model.CodeInternal
	}
}

// respondFailure writes the envelope for err. Unhandled faults are logged and
// reported to the caller with a generic message.
func respondFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "unhandled error", slog.Any("error", err))
		respondError(w, status, code, "internal server error")
		return
	}

	logger.WarnContext(r.Context(), "request rejected",
		slog.String("code", code),
		slog.String("reason", err.Error()),
	)
	respondError(w, status, code, err.Error())
}
