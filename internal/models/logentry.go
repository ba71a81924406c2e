// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionFlag classifies an administrative change-log entry.
type ActionFlag int

const (
	ActionAddition ActionFlag = 1
	ActionChange   ActionFlag = 2
	ActionDeletion ActionFlag = 3
)

func (f ActionFlag) String() string {
	switch f {
	case ActionAddition:
		return "ADDITION"
	case ActionChange:
		return "CHANGE"
	case ActionDeletion:
		return "DELETION"
	}
	return "UNKNOWN"
}

// ContentType identifies a kind of entity in the change log, for example
// blog.post or auth.user.
type ContentType struct {
	ID       int64  `json:"id"`
	AppLabel string `json:"app_label"`
	Model    string `json:"model"`
}

// Known content-type model names, seeded by migration.
const (
	KindPost     = "post"
	KindCategory = "category"
	KindComment  = "comment"
	KindTag      = "tag"
	KindUser     = "user"
)

// Name returns the model name as change-log audit records carry it: the
// lower-case model ("post", "category"). Authentication records name
// their model "User" themselves.
func (ct *ContentType) Name() string {
	return strings.ToLower(ct.Model)
}

// LogEntry is a persisted administrative change-log record: one row per
// create, change or delete performed through the admin surface.
type LogEntry struct {
	ID            int64      `json:"id"`
	ActionTime    time.Time  `json:"action_time"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	ContentTypeID *int64     `json:"content_type_id,omitempty"`
	ObjectID      string     `json:"object_id"`
	ObjectRepr    string     `json:"object_repr"`
	ActionFlag    ActionFlag `json:"action_flag"`
	ChangeMessage string     `json:"change_message"`

	// User is attached by the creator or by store listings; nil when the
	// action had no authenticated actor.
	User *User `json:"user,omitempty"`
}
