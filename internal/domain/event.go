package domain

import "time"

// Channel identifies the external medium an event arrived on.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelVoice    Channel = "voice"
	ChannelInternal Channel = "internal"
)

// IsValid checks if the channel is one of the allowed values.
func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelVoice || c == ChannelInternal
}

// Canonical event types, tagged channel.action.
const (
	EventEmailReceived = "email.received"

	EventVoiceCallStarted  = "voice.call_started"
	EventVoiceFunctionCall = "voice.function_call"
	EventVoiceCallEnded    = "voice.call_ended"
	EventVoiceStatus       = "voice.status"
	EventVoiceUnhandled    = "voice.unhandled"

	EventExecute       = "internal.execute"
	EventReplan        = "internal.replan"
	EventCancel        = "internal.cancel"
	EventFatalError    = "internal.fatal_error"
	EventInfoGathered  = "internal.info_gathered"
	EventResearchDone  = "internal.research_done"
	EventInputRequired = "internal.input_required"
)

// CanonicalEvent is the channel-agnostic representation of one inbound
// occurrence. It is ephemeral: consumed to produce exactly one TaskLog
// entry and at most one state transition, never persisted directly.
type CanonicalEvent struct {
	TaskID     string
	EventType  string
	Channel    Channel
	OccurredAt time.Time
	Payload    map[string]any
}

// Validate checks the event is well-formed before any storage access.
func (e *CanonicalEvent) Validate() error {
	if e == nil || e.TaskID == "" {
		return ErrInvalidEvent
	}
	if e.EventType == "" {
		return ErrInvalidEvent
	}
	if !e.Channel.IsValid() {
		return ErrInvalidEvent
	}
	return nil
}
