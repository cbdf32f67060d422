package api

import (
	"io"
	"net/http"

	"github.com/xraph/assetsync"
	"github.com/xraph/assetsync/delivery"
)

func (h *Handler) syncAsset(w http.ResponseWriter, r *http.Request) {
	var req assetsync.AssetNotification
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.syncer.SyncAsset(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// brandEvent accepts a CloudEvents envelope from a brand. The brand
// authenticates with its secret in the X-Brand-Secret header.
func (h *Handler) brandEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.syncer.HandleBrandEvent(r.Context(), r.Header.Get(delivery.HeaderBrandSecret), body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
