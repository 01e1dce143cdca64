package channel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxtask/voxtask/internal/channel"
	"github.com/voxtask/voxtask/internal/domain"
)

func voicePayload(tag string) map[string]any {
	return map[string]any{
		"type": tag,
		"call": map[string]any{
			"metadata": map[string]any{"task_id": testTaskID},
		},
	}
}

func TestNormalizeVoice_TagMapping(t *testing.T) {
	cases := map[string]string{
		"assistant-request":  domain.EventVoiceCallStarted,
		"function-call":      domain.EventVoiceFunctionCall,
		"end-of-call-report": domain.EventVoiceCallEnded,
		"status-update":      domain.EventVoiceStatus,
	}

	for tag, want := range cases {
		event, err := channel.NormalizeVoice(voicePayload(tag), now)
		require.NoError(t, err, "tag %s", tag)
		assert.Equal(t, want, event.EventType, "tag %s", tag)
		assert.Equal(t, domain.ChannelVoice, event.Channel)
		assert.Equal(t, testTaskID, event.TaskID)
	}
}

func TestNormalizeVoice_UnrecognizedTagPreserved(t *testing.T) {
	payload := voicePayload("speech-update")
	payload["transcript"] = "partial words"

	event, err := channel.NormalizeVoice(payload, now)
	require.NoError(t, err)

	assert.Equal(t, domain.EventVoiceUnhandled, event.EventType)
	assert.Equal(t, "speech-update", event.Payload["type"])
	assert.Equal(t, "partial words", event.Payload["transcript"])
}

func TestNormalizeVoice_TopLevelTaskIDFallback(t *testing.T) {
	event, err := channel.NormalizeVoice(map[string]any{
		"type":    "status-update",
		"task_id": testTaskID,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, testTaskID, event.TaskID)
}

func TestNormalizeVoice_Unroutable(t *testing.T) {
	_, err := channel.NormalizeVoice(map[string]any{"type": "status-update"}, now)
	require.ErrorIs(t, err, domain.ErrUnroutableEvent)
}
