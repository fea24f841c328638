package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func serveError(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	responses.WriteError(r.Context(), logg, w, err)
}
