package api

import (
	"net/http"

	"github.com/xraph/assetsync/routing"
)

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.syncer.Registry().ListRules(r.Context(), r.PathValue("id"), r.PathValue("code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if rules == nil {
		rules = []routing.Rule{}
	}

	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) addRule(w http.ResponseWriter, r *http.Request) {
	var rule routing.Rule
	if err := decodeJSON(w, r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	added, err := h.syncer.Registry().AddRule(r.Context(), r.PathValue("id"), r.PathValue("code"), rule)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	var rule routing.Rule
	if err := decodeJSON(w, r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.ID = r.PathValue("ruleId")

	updated, err := h.syncer.Registry().UpdateRule(r.Context(), r.PathValue("id"), r.PathValue("code"), rule)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	err := h.syncer.Registry().DeleteRule(r.Context(), r.PathValue("id"), r.PathValue("code"), r.PathValue("ruleId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// evaluateRules dry-runs the brand's rules for a code against a payload.
func (h *Handler) evaluateRules(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decodeJSON(w, r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rules, err := h.syncer.Registry().ListRules(r.Context(), r.PathValue("id"), r.PathValue("code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.syncer.Evaluator().Evaluate(rules, data).AsMap())
}
