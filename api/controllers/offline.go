package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/offline"
)

// OfflineManifest publishes the caching boundary the client worker enforces.
func OfflineManifest(policy *offline.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		responses.WriteSuccess(w, policy.Manifest())
	}
}
