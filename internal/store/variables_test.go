// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"postforge/internal/models"
)

func TestVariablesStoreGetMissingReturnsEmpty(t *testing.T) {
	db, mock := newMock(t)
	s := NewVariablesStore(db)
	userID := uuid.New()

	mock.ExpectQuery(`FROM user_variables WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"tone"}))

	v, err := s.Get(userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v == nil || !v.IsEmpty() || v.UserID != userID {
		t.Errorf("expected empty variables for user, got %+v", v)
	}
}

func TestVariablesStoreGetDecodesTerms(t *testing.T) {
	db, mock := newMock(t)
	s := NewVariablesStore(db)
	userID := uuid.New()

	mock.ExpectQuery(`FROM user_variables WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"tone", "target_audience", "brand_voice", "niche", "forbidden_terms", "updated_at",
		}).AddRow("direto", "founders", "", "saas", `["barato","grátis"]`, fixedTime))

	v, err := s.Get(userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Tone != "direto" || len(v.ForbiddenTerms) != 2 || v.ForbiddenTerms[1] != "grátis" {
		t.Errorf("unexpected variables: %+v", v)
	}
}

func TestVariablesStoreUpsertEncodesNilTerms(t *testing.T) {
	db, mock := newMock(t)
	s := NewVariablesStore(db)
	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO user_variables .+ ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(userID, "leve", "", "", "", "[]").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Upsert(&models.UserVariables{UserID: userID, Tone: "leve"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}
