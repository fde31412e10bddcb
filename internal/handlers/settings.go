// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// VariablesStore reads and writes the per-user prompt variables.
// *cache.VariablesCache implements it.
type VariablesStore interface {
	Variables(ctx context.Context, userID uuid.UUID) (*models.UserVariables, error)
	Save(ctx context.Context, v *models.UserVariables) error
}

// Settings groups the per-user settings handlers.
type Settings struct {
	variables VariablesStore
}

// NewSettings creates the settings handler group.
func NewSettings(variables VariablesStore) *Settings {
	return &Settings{variables: variables}
}

// Variables returns the user's prompt variables.
func (h *Settings) Variables(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	v, err := h.variables.Variables(r.Context(), userID)
	if err != nil {
		writeInternal(w, "load variables", err)
		return
	}
	if v == nil {
		v = &models.UserVariables{UserID: userID}
	}
	if v.ForbiddenTerms == nil {
		v.ForbiddenTerms = []string{}
	}
	writeJSON(w, http.StatusOK, v)
}

type variablesRequest struct {
	Tone           string   `json:"tone"`
	TargetAudience string   `json:"target_audience"`
	BrandVoice     string   `json:"brand_voice"`
	Niche          string   `json:"niche"`
	ForbiddenTerms []string `json:"forbidden_terms"`
}

// SaveVariables replaces the user's prompt variables.
func (h *Settings) SaveVariables(w http.ResponseWriter, r *http.Request) {
	var req variablesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, f := range []string{req.Tone, req.TargetAudience, req.BrandVoice, req.Niche} {
		if tooLong(f, maxAudienceLen) {
			writeError(w, http.StatusBadRequest, "Variables are limited to 500 characters each.")
			return
		}
	}
	if len(req.ForbiddenTerms) > maxNegativeTerm {
		writeError(w, http.StatusBadRequest, "Too many forbidden terms (max 50).")
		return
	}

	v := &models.UserVariables{
		UserID:         currentUser(r),
		Tone:           strings.TrimSpace(req.Tone),
		TargetAudience: strings.TrimSpace(req.TargetAudience),
		BrandVoice:     strings.TrimSpace(req.BrandVoice),
		Niche:          strings.TrimSpace(req.Niche),
		ForbiddenTerms: cleanTerms(req.ForbiddenTerms),
	}
	if err := h.variables.Save(r.Context(), v); err != nil {
		writeInternal(w, "save variables", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
