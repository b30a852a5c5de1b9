package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

type ErrorCode string

const (
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	CodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeOnboardingRequired  ErrorCode = "ONBOARDING_REQUIRED"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeEmailTaken          ErrorCode = "EMAIL_TAKEN"
	CodeUsernameTaken       ErrorCode = "USERNAME_TAKEN"
	CodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidRole         ErrorCode = "INVALID_ROLE"
	CodeInvalidReferralCode ErrorCode = "INVALID_REFERRAL_CODE"
	CodeInvalidMedia        ErrorCode = "INVALID_MEDIA"
	CodeInvalidCursor       ErrorCode = "INVALID_CURSOR"
	CodeAlreadyReported     ErrorCode = "ALREADY_REPORTED"
	CodeCannotReportOwnPost ErrorCode = "CANNOT_REPORT_OWN_POST"
	CodeAlreadyResolved     ErrorCode = "ALREADY_RESOLVED"
	CodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	CodeUnsupportedMedia    ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Fields  error     `json:"fields,omitempty"`
}

type mapping struct {
	err    error
	status int
	code   ErrorCode
}

// order matters where errors wrap each other
var domainErrors = []mapping{
	{ErrInvalidBody, http.StatusBadRequest, CodeInvalidRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{domain.ErrOnboardingRequired, http.StatusForbidden, CodeOnboardingRequired},
	{domain.ErrEmailTaken, http.StatusConflict, CodeEmailTaken},
	{domain.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
	{domain.ErrInvalidRole, http.StatusBadRequest, CodeInvalidRole},
	{domain.ErrInvalidReferralCode, http.StatusBadRequest, CodeInvalidReferralCode},
	{domain.ErrInvalidMedia, http.StatusBadRequest, CodeInvalidMedia},
	{domain.ErrInvalidCursor, http.StatusBadRequest, CodeInvalidCursor},
	{domain.ErrAlreadyReported, http.StatusConflict, CodeAlreadyReported},
	{domain.ErrCannotReportOwnPost, http.StatusBadRequest, CodeCannotReportOwnPost},
	{domain.ErrAlreadyResolved, http.StatusConflict, CodeAlreadyResolved},
	{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodeFileTooLarge},
	{domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, CodeUnsupportedMedia},
	{domain.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrPostNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrMediaNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrQueueEntryNotFound, http.StatusNotFound, CodeNotFound},
}

func WriteError(w http.ResponseWriter, err error, logger *logger.Logger) {
	status, response, known := mapError(err)

	if known {
		logger.Warn("domain error",
			"error", err.Error(),
			"code", response.Error.Code,
		)
	} else {
		logger.Error("unexpected error",
			"error", err.Error(),
		)
	}

	writeJSON(w, status, response, logger)
}

func mapError(err error) (int, ErrorResponse, bool) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    CodeValidationFailed,
				Message: "request validation failed",
				Fields:  verrs,
			},
		}, true
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, ErrorResponse{
				Error: ErrorDetail{
					Code:    m.code,
					Message: m.err.Error(),
				},
			}, true
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    CodeInternal,
			Message: "internal server error",
		},
	}, false
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a single JSON object and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}
