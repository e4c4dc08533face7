// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/models"
	"github.com/tomtom215/giftwise/internal/validation"
)

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validation.IsSessionID(id) {
		respondError(w, http.StatusBadRequest, models.CodeValidation, "Invalid product id", nil)
		return
	}

	p, err := h.deps.Catalog.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, models.CodeNotFound, "Product not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to load product", err)
		return
	}

	out := *p
	out.Embedding = nil
	respondCacheable(w, r, &out)
}
