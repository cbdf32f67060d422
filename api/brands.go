package api

import (
	"net/http"

	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/registry"
)

// secretResponse is the only shape that carries a brand secret: the
// registration and rotation answers.
type secretResponse struct {
	*registry.Brand
	Secret string `json:"secret"`
}

type stateResponse struct {
	Brand        *registry.Brand  `json:"brand"`
	Notification *delivery.Report `json:"notification,omitempty"`
}

func (h *Handler) registerBrand(w http.ResponseWriter, r *http.Request) {
	var req registry.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.syncer.RegisterBrand(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, secretResponse{Brand: b, Secret: b.Secret})
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.syncer.Brands().List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)
	if offset >= len(brands) {
		brands = brands[:0]
	} else {
		brands = brands[offset:]
	}
	if limit > 0 && limit < len(brands) {
		brands = brands[:limit]
	}

	writeJSON(w, http.StatusOK, brands)
}

func (h *Handler) getBrand(w http.ResponseWriter, r *http.Request) {
	b, err := h.syncer.Brands().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) updateBrand(w http.ResponseWriter, r *http.Request) {
	var req registry.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.syncer.Brands().Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) deleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.Brands().Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) enableBrand(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *Handler) disableBrand(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	b, report, err := h.syncer.SetBrandEnabled(r.Context(), r.PathValue("id"), enabled)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{Brand: b, Notification: report})
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	b, err := h.syncer.Brands().RotateSecret(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, secretResponse{Brand: b, Secret: b.Secret})
}
