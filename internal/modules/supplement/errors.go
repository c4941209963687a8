package supplement

import (
	"net/http"

	"github.com/dsfhealth/sahaya/internal/domain"
)

// Pre-defined domain errors for the supplement module.
var (
	// ErrNotFound covers both a missing supplement and one owned by another
	// user; ownership failures are indistinguishable from absence on the wire.
	ErrNotFound = &domain.Error{
		Code:       "ErrSupplementNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "supplement not found",
		TypeURI:    "urn:problem:supplement/err-not-found",
	}

	ErrInvalidDate = &domain.Error{
		Code:       "ErrInvalidDate",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "date must be in YYYY-MM-DD format",
		TypeURI:    "urn:problem:supplement/err-invalid-date",
	}

	ErrInternal = &domain.Error{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:supplement/err-internal",
	}
)
