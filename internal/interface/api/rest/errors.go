package rest

import (
	"net/http"

	"archivo-storage-api/pkg/apperrors"
)

// statusForError maps the service error taxonomy to transport codes. Anything
// unclassified stays a 500 with a generic message so infrastructure details
// never leak to clients.
func statusForError(err error) (int, string) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest, err.Error()
	case apperrors.KindNotFound:
		return http.StatusNotFound, err.Error()
	case apperrors.KindConflict:
		return http.StatusConflict, err.Error()
	case apperrors.KindStorage:
		return http.StatusBadGateway, "storage backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
