package httpx

import (
	"errors"
	"net/http"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

// RespondError maps engine errors to HTTP responses. Every error carries its
// message through so the operator sees why a write was refused.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Invalid Status Transition", err.Error())
	case errors.Is(err, shared.ErrDuplicateConversion):
		Problem(w, http.StatusConflict, "Already Converted", err.Error())
	case errors.Is(err, shared.ErrUnsizableProject):
		Problem(w, http.StatusUnprocessableEntity, "Unsizable Project", err.Error())
	case errors.Is(err, shared.ErrNegativeBalance):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
