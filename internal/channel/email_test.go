package channel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxtask/voxtask/internal/channel"
	"github.com/voxtask/voxtask/internal/domain"
)

const testTaskID = "3f1e9c2a-8f5d-4b6e-9a1c-2d3e4f5a6b7c"

var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestNormalizeEmail_SynonymPriority(t *testing.T) {
	event, err := channel.NormalizeEmail(map[string]any{
		"task_id": testTaskID,
		"From":    "a@x.com",
		"plain":   "hi",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, domain.EventEmailReceived, event.EventType)
	assert.Equal(t, domain.ChannelEmail, event.Channel)
	assert.Equal(t, testTaskID, event.TaskID)
	assert.Equal(t, "a@x.com", event.Payload["from"])
	assert.Equal(t, "(no subject)", event.Payload["subject"])
	assert.Equal(t, "hi", event.Payload["body"])
}

func TestNormalizeEmail_FirstNonEmptyWins(t *testing.T) {
	event, err := channel.NormalizeEmail(map[string]any{
		"task_id": testTaskID,
		"from":    "primary@x.com",
		"sender":  "secondary@x.com",
		"text":    "first",
		"body":    "last",
		"subject": "hello",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "primary@x.com", event.Payload["from"])
	assert.Equal(t, "hello", event.Payload["subject"])
	assert.Equal(t, "first", event.Payload["body"])
}

func TestNormalizeEmail_MissingFieldsDefaulted(t *testing.T) {
	event, err := channel.NormalizeEmail(map[string]any{
		"task_id": testTaskID,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "unknown", event.Payload["from"])
	assert.Equal(t, "(no subject)", event.Payload["subject"])
	assert.Equal(t, "", event.Payload["body"])
}

func TestNormalizeEmail_RawFieldsPreserved(t *testing.T) {
	raw := map[string]any{
		"task_id":      testTaskID,
		"sender":       "a@x.com",
		"Message-Id":   "<abc@x.com>",
		"x-spam-score": 0.1,
	}
	event, err := channel.NormalizeEmail(raw, now)
	require.NoError(t, err)

	// Provider extras pass through opaquely for audit.
	assert.Equal(t, "<abc@x.com>", event.Payload["Message-Id"])
	assert.Equal(t, 0.1, event.Payload["x-spam-score"])
	// The input itself is not mutated.
	assert.NotContains(t, raw, "body")
}

func TestNormalizeEmail_Unroutable(t *testing.T) {
	_, err := channel.NormalizeEmail(map[string]any{
		"from": "a@x.com",
		"text": "hi",
	}, now)
	require.ErrorIs(t, err, domain.ErrUnroutableEvent)
}

func TestResolveEmailTaskID_PlusAddress(t *testing.T) {
	id, err := channel.ResolveEmailTaskID(map[string]any{
		"to": "operator+" + testTaskID + "@voxtask.example",
	})
	require.NoError(t, err)
	assert.Equal(t, testTaskID, id)
}

func TestResolveEmailTaskID_SubjectTag(t *testing.T) {
	id, err := channel.ResolveEmailTaskID(map[string]any{
		"subject": "Re: booking confirmed [task:" + testTaskID + "]",
	})
	require.NoError(t, err)
	assert.Equal(t, testTaskID, id)
}

func TestResolveEmailTaskID_ExplicitFieldWins(t *testing.T) {
	other := "00000000-0000-0000-0000-000000000099"
	id, err := channel.ResolveEmailTaskID(map[string]any{
		"task_id": testTaskID,
		"to":      "operator+" + other + "@voxtask.example",
	})
	require.NoError(t, err)
	assert.Equal(t, testTaskID, id)
}

func TestResolveEmailTaskID_RejectsMalformedUUID(t *testing.T) {
	_, err := channel.ResolveEmailTaskID(map[string]any{
		"task_id": "not-a-uuid",
		"to":      "operator+also-not-a-uuid@voxtask.example",
	})
	require.ErrorIs(t, err, domain.ErrUnroutableEvent)
}
