package model

import "time"

// InlineButton is one inline-keyboard cell. Exactly one of Data or URL
// should be set.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// CallbackAnswerMode selects one side effect a callback answer performs.
// Modes on a single answer run concurrently.
type CallbackAnswerMode string

const (
	AnswerCallback      CallbackAnswerMode = "answer_callback"
	AnswerSendMessage   CallbackAnswerMode = "send_message"
	AnswerEditMessage   CallbackAnswerMode = "edit_message"
	AnswerDeleteMessage CallbackAnswerMode = "delete_message"
	AnswerMuteMember    CallbackAnswerMode = "mute_member"
	AnswerKickMember    CallbackAnswerMode = "schedule_kick_member"

	// Reserved, no effect yet.
	AnswerBanMember      CallbackAnswerMode = "ban_member"
	AnswerKickMemberHard CallbackAnswerMode = "kick_member"
)

// CallbackAnswer describes what to do in response to a pressed button.
type CallbackAnswer struct {
	Modes []CallbackAnswerMode

	Text      string
	ShowAlert bool
	Rows      [][]InlineButton

	// DeleteMessageID is the target for AnswerDeleteMessage; zero falls back
	// to the message the button was attached to.
	DeleteMessageID int

	// MuteDuration is how long AnswerMuteMember restricts the presser.
	MuteDuration time.Duration

	// KickReason annotates the step row AnswerKickMember creates.
	KickReason string
}

// CallbackResult is the aggregate outcome of one dispatched answer.
type CallbackResult struct {
	IsSuccess      bool
	UpdatedMessage *Message
	SentMessage    *Message
	Failed         []CallbackAnswerMode
}
