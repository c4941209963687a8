package profile

import (
	"net/http"

	"github.com/dsfhealth/sahaya/internal/domain"
)

// Pre-defined domain errors for the profile module.
var (
	ErrNotFound = &domain.Error{
		Code:       "ErrProfileNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "profile not found",
		TypeURI:    "urn:problem:profile/err-not-found",
	}

	ErrInternal = &domain.Error{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:profile/err-internal",
	}
)
