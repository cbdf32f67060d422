package api

import (
	"net/http"
)

type statsResponse struct {
	Brands        int   `json:"brands"`
	EnabledBrands int   `json:"enabled_brands"`
	DLQSize       int64 `json:"dlq_size"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	brands, err := h.syncer.Brands().List(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dlqCount, err := h.syncer.DLQ().Count(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := statsResponse{Brands: len(brands), DLQSize: dlqCount}
	for _, b := range brands {
		if b.Enabled {
			resp.EnabledBrands++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
