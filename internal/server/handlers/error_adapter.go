package handlers

import (
	"net/http"

	apperrors "github.com/pixelgate/pixelgate/internal/errors"
)

var httpErrorResponder = apperrors.RespondWithError

// SetHTTPErrorResponder overrides how handlers render errors. nil restores the default.
func SetHTTPErrorResponder(responder func(http.ResponseWriter, *http.Request, error)) {
	if responder == nil {
		responder = apperrors.RespondWithError
	}
	httpErrorResponder = responder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
