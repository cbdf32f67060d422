package api

import (
	"errors"
	"net/http"

	"github.com/xraph/assetsync"
	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/registry"
	"github.com/xraph/assetsync/routing"
)

// statusFor maps sentinel and typed errors to HTTP status codes.
func statusFor(err error) int {
	var (
		validation *registry.ValidationError
		missing    *event.MissingFieldsError
		format     *asset.FormatError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &missing),
		errors.As(err, &format),
		errors.Is(err, assetsync.ErrUnknownEventCode),
		errors.Is(err, assetsync.ErrPayloadValidationFailed),
		errors.Is(err, assetsync.ErrInvalidEnvelope),
		errors.Is(err, assetsync.ErrInvalidNotification),
		errors.Is(err, assetsync.ErrNotBrandEvent),
		errors.Is(err, assetsync.ErrAssetHostNotAllowed),
		errors.Is(err, routing.ErrInvalidRule):
		return http.StatusBadRequest
	case errors.Is(err, assetsync.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, assetsync.ErrBrandNotFound),
		errors.Is(err, assetsync.ErrRuleNotFound),
		errors.Is(err, assetsync.ErrDLQNotFound):
		return http.StatusNotFound
	case errors.Is(err, assetsync.ErrRuleConflict),
		errors.Is(err, assetsync.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, asset.ErrFetchFailed),
		errors.Is(err, assetsync.ErrReplayFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Server errors are
// logged and their detail is not echoed to the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusUnauthorized {
		writeError(w, status, "unauthorized")
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "api error", "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			writeError(w, status, "internal server error")
			return
		}
	}
	writeError(w, status, err.Error())
}
