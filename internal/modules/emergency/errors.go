package emergency

import (
	"net/http"

	"github.com/dsfhealth/sahaya/internal/domain"
)

// Pre-defined domain errors for the emergency module.
var (
	ErrNotConfigured = &domain.Error{
		Code:       "ErrEmergencyNotConfigured",
		HTTPStatus: http.StatusServiceUnavailable,
		Title:      "Service Unavailable",
		Message:    "no emergency contact is configured",
		TypeURI:    "urn:problem:emergency/err-not-configured",
	}

	ErrAlertFailed = &domain.Error{
		Code:       "ErrAlertFailed",
		HTTPStatus: http.StatusBadGateway,
		Title:      "Bad Gateway",
		Message:    "the emergency alert could not be delivered",
		TypeURI:    "urn:problem:emergency/err-alert-failed",
	}

	ErrInternal = &domain.Error{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:emergency/err-internal",
	}
)
