package model

import (
	"time"

	"telegram-group-warden/internal/domain"

	"github.com/google/uuid"
)

// StepName identifies one verification requirement a member can be warned for.
type StepName string

const (
	StepUsername          StepName = "chat_member_username"
	StepPhoto             StepName = "chat_member_photo"
	StepHumanVerification StepName = "human_verification"
)

type StepStatus string

const (
	StepNeedVerify StepStatus = "need_verify"
	StepVerified   StepStatus = "verified"
	StepKicked     StepStatus = "kicked"
)

// StepHistory tracks one (chat, member, step) warning. The row is the single
// source of truth for the pending kick: the deferred job re-reads it at fire
// time instead of being cancelled on verification.
type StepHistory struct {
	ID     string
	ChatID int64
	UserID int64

	Name   StepName
	Status StepStatus
	Reason string

	// WarnMessageID is the last warning message shown for this step.
	WarnMessageID int
	// JobID is the deferred kick job registered when the warning was issued.
	JobID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewStepHistory(chatID, userID int64, name StepName, reason string) (*StepHistory, error) {
	if chatID == 0 || userID == 0 || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &StepHistory{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		Name:      name,
		Status:    StepNeedVerify,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *StepHistory) Pending() bool { return s != nil && s.Status == StepNeedVerify }
