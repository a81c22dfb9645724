package health

import (
	"encoding/json"
	"net/http"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz reports readiness. The calculator is ready as soon as it serves;
// the TLE fields tell operators whether satellite endpoints will answer.
// store may be nil when satellite support is disabled.
func Readyz(store *tle.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			Status     string `json:"status"`
			TLELoaded  bool   `json:"tle_loaded"`
			Satellites int    `json:"satellites"`
		}{Status: "ready"}

		if store != nil {
			if ds := store.Get(); ds != nil {
				body.TLELoaded = true
				body.Satellites = len(ds.Satellites)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body)
	}
}
