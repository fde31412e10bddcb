// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// UserVariables are the per-user writing preferences injected into every
// generation prompt. The pipeline only ever reads them.
type UserVariables struct {
	UserID         uuid.UUID `json:"user_id"`
	Tone           string    `json:"tone"`
	TargetAudience string    `json:"target_audience"`
	BrandVoice     string    `json:"brand_voice"`
	Niche          string    `json:"niche"`
	ForbiddenTerms []string  `json:"forbidden_terms"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsEmpty reports whether no preference has been filled in.
func (v *UserVariables) IsEmpty() bool {
	return v == nil || (v.Tone == "" && v.TargetAudience == "" && v.BrandVoice == "" &&
		v.Niche == "" && len(v.ForbiddenTerms) == 0)
}
