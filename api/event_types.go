package api

import (
	"net/http"

	"github.com/xraph/assetsync/catalog"
)

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.syncer.Catalog().List(queryParam(r, "pattern")))
}

func (h *Handler) registerEventType(w http.ResponseWriter, r *http.Request) {
	var def catalog.Definition
	if err := decodeJSON(w, r, &def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.syncer.Catalog().Register(def); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	registered, err := h.syncer.Catalog().Lookup(def.Code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registered)
}
