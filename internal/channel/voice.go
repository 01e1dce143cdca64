package channel

import (
	"maps"
	"time"

	"github.com/voxtask/voxtask/internal/domain"
)

// voiceEventTypes maps provider call-lifecycle tags to canonical event
// types. Tags absent from this map become voice.unhandled.
var voiceEventTypes = map[string]string{
	"assistant-request":  domain.EventVoiceCallStarted,
	"function-call":      domain.EventVoiceFunctionCall,
	"end-of-call-report": domain.EventVoiceCallEnded,
	"status-update":      domain.EventVoiceStatus,
}

// NormalizeVoice maps a voice webhook payload to a canonical event. The
// provider tag is read from the payload's "type" field; unrecognized tags
// map to voice.unhandled with the payload preserved verbatim, so nothing
// is silently lost.
func NormalizeVoice(raw map[string]any, occurredAt time.Time) (*domain.CanonicalEvent, error) {
	taskID, err := ResolveVoiceTaskID(raw)
	if err != nil {
		return nil, err
	}

	tag, _ := raw["type"].(string)
	eventType, ok := voiceEventTypes[tag]
	if !ok {
		eventType = domain.EventVoiceUnhandled
	}

	return &domain.CanonicalEvent{
		TaskID:     taskID,
		EventType:  eventType,
		Channel:    domain.ChannelVoice,
		OccurredAt: occurredAt,
		Payload:    maps.Clone(raw),
	}, nil
}
