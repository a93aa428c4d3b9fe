package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/internal/ingest"
)

// Ingester is the gateway interface the handler depends on.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (int64, error)
}

// NewIngestHandler returns the handler for POST /api/ingest. This endpoint
// is public: the API key inside the payload is the only credential.
func NewIngestHandler(svc Ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingest.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.FieldError(w, "Invalid JSON body", "body")
			return
		}

		id, err := svc.Ingest(r.Context(), req)
		if err != nil {
			writeError(w, err, "Invalid API Key")
			return
		}

		response.JSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}
