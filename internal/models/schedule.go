// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform is a social network a post can be scheduled for.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformX         Platform = "x"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformLinkedIn, PlatformTikTok, PlatformFacebook, PlatformX:
		return true
	}
	return false
}

// ScheduleStatus tracks a scheduled post through publication.
type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	SchedulePublished ScheduleStatus = "published"
	ScheduleFailed    ScheduleStatus = "failed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// ScheduledPost binds a library item to a platform and publish time.
type ScheduledPost struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	LibraryItemID uuid.UUID      `json:"library_item_id"`
	Platform      Platform       `json:"platform"`
	ScheduledFor  time.Time      `json:"scheduled_for"`
	Status        ScheduleStatus `json:"status"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
