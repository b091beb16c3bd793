package api

import (
	"errors"
	"net/http"

	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/metrics"
)

// SharedVideoHandler serves share records as JSON.
type SharedVideoHandler struct {
	deps Dependencies
}

// NewSharedVideoHandler creates a new shared video handler.
func NewSharedVideoHandler(deps Dependencies) *SharedVideoHandler {
	return &SharedVideoHandler{deps: deps}
}

// sharedVideoResponse is the record plus the computed scorecard.
type sharedVideoResponse struct {
	ShareID string `json:"shareId"`
	share.Details
	Scorecard share.Scorecard `json:"scorecard"`
	Overall   float64         `json:"overall"`
}

// HandleGetSharedVideo handles GET /api/shared-videos/{shareId}.
func (h *SharedVideoHandler) HandleGetSharedVideo(w http.ResponseWriter, r *http.Request) {
	rawID := r.PathValue("shareId")

	d, err := h.deps.SharedVideo(r.Context(), rawID)
	if err != nil {
		// The service logs the cause; clients get the visitor message.
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, upstream.HTTPStatus(err), string(upstream.Classify(err)), errors.New(upstream.UserMessage(err)))
		return
	}

	card := d.Scorecard()
	metrics.RecordShareView("api")
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, http.StatusOK, sharedVideoResponse{
		ShareID:   rawID,
		Details:   d,
		Scorecard: card,
		Overall:   card.Overall(),
	})
}
