// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"postforge/internal/models"
)

// VariablesStore reads and writes per-user writing preferences.
type VariablesStore struct {
	db *sql.DB
}

// NewVariablesStore returns a new VariablesStore.
func NewVariablesStore(db *sql.DB) *VariablesStore {
	return &VariablesStore{db: db}
}

// Get returns the user's variables. A user who never saved any gets an
// empty set rather than nil.
func (s *VariablesStore) Get(userID uuid.UUID) (*models.UserVariables, error) {
	v := &models.UserVariables{UserID: userID}
	var forbidden string
	err := s.db.QueryRow(`
		SELECT tone, target_audience, brand_voice, niche, forbidden_terms, updated_at
		FROM user_variables WHERE user_id = $1
	`, userID).Scan(&v.Tone, &v.TargetAudience, &v.BrandVoice, &v.Niche, &forbidden, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user variables: %w", err)
	}
	if err := json.Unmarshal([]byte(forbidden), &v.ForbiddenTerms); err != nil {
		return nil, fmt.Errorf("decode forbidden terms: %w", err)
	}
	return v, nil
}

// Upsert stores the user's variables, replacing any previous values.
func (s *VariablesStore) Upsert(v *models.UserVariables) error {
	terms := v.ForbiddenTerms
	if terms == nil {
		terms = []string{}
	}
	forbidden, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("encode forbidden terms: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO user_variables (user_id, tone, target_audience, brand_voice, niche, forbidden_terms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			tone = EXCLUDED.tone,
			target_audience = EXCLUDED.target_audience,
			brand_voice = EXCLUDED.brand_voice,
			niche = EXCLUDED.niche,
			forbidden_terms = EXCLUDED.forbidden_terms,
			updated_at = NOW()
	`, v.UserID, v.Tone, v.TargetAudience, v.BrandVoice, v.Niche, string(forbidden))
	if err != nil {
		return fmt.Errorf("upsert user variables: %w", err)
	}
	return nil
}
