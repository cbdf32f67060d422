package api

import (
	"net/http"
	"time"

	"github.com/xraph/assetsync/dlq"
	"github.com/xraph/assetsync/id"
)

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

func (h *Handler) listDLQ(w http.ResponseWriter, r *http.Request) {
	opts := dlq.ListOpts{
		Offset:          queryInt(r, "offset", 0),
		Limit:           queryInt(r, "limit", 50),
		BrandID:         queryParam(r, "brand_id"),
		EventType:       queryParam(r, "event_type"),
		IncludeReplayed: queryParam(r, "include_replayed") == "true",
	}

	if from := queryParam(r, "from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		opts.From = &t
	}
	if to := queryParam(r, "to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		opts.To = &t
	}

	entries, err := h.syncer.DLQ().List(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) replayDLQ(w http.ResponseWriter, r *http.Request) {
	dlqID, err := id.ParseDLQID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid DLQ ID")
		return
	}

	e, err := h.syncer.ReplayDLQ(r.Context(), dlqID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) purgeDLQ(w http.ResponseWriter, r *http.Request) {
	raw := queryParam(r, "before")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "before query parameter is required")
		return
	}
	before, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid before timestamp")
		return
	}

	n, err := h.syncer.DLQ().Purge(r.Context(), before)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{Purged: n})
}
