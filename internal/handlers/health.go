package handlers

import "net/http"

// HealthResponse is the liveness payload.
//
// swagger:model HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

var healthBody = []byte(`{"status":"ok"}` + "\n")

// Health reports that the process is up. It does not probe the store or the model provider.
//
// swagger:route GET /health healthCheck
//
// # Liveness check
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Service is up
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(healthBody)
}
