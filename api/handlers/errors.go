package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/core"
)

// CoreErrorStatus logs a core failure and writes the matching HTTP status
// and body. Unknown kinds fall through to a 500.
func CoreErrorStatus(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch core.KindOf(err) {
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindForbidden:
		status = http.StatusForbidden
	case core.KindConflict, core.KindInvalidInput:
		status = http.StatusBadRequest
	case core.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	zap.S().With(err).Errorw("request failed",
		"code", core.CodeOf(err),
		"status", status,
	)
	w.WriteHeader(status)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s", "code": "%s"}`, err.Error(), core.CodeOf(err))))
}
