package channel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/voxtask/voxtask/internal/domain"
)

// Inbound payloads carry no session, so the task a webhook belongs to is
// resolved from an explicit routing key embedded when the outbound side of
// the channel was set up: a plus-address on the recipient for email, call
// metadata for voice. Nothing is guessed; an unresolvable payload fails
// normalization before any storage access.

var subjectTagRe = regexp.MustCompile(`\[task:([0-9a-fA-F-]{36})\]`)

var recipientFields = []string{"to", "recipient", "To"}

// ResolveEmailTaskID extracts the target task id from an email payload.
// Priority: explicit task_id field, plus-address routing key on the
// recipient (name+<uuid>@host), [task:<uuid>] subject tag.
func ResolveEmailTaskID(payload map[string]any) (string, error) {
	if id := explicitTaskID(payload); id != "" {
		return id, nil
	}

	if recipient := firstNonEmpty(payload, recipientFields); recipient != "" {
		if id := plusAddressTaskID(recipient); id != "" {
			return id, nil
		}
	}

	if subject := firstNonEmpty(payload, subjectFields); subject != "" {
		if m := subjectTagRe.FindStringSubmatch(subject); m != nil {
			if id := validTaskID(m[1]); id != "" {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no routing key in email payload", domain.ErrUnroutableEvent)
}

// ResolveVoiceTaskID extracts the target task id from a voice payload.
// Priority: call.metadata.task_id (assistant metadata echoes what was set
// when the call was placed), top-level task_id.
func ResolveVoiceTaskID(payload map[string]any) (string, error) {
	if call, ok := payload["call"].(map[string]any); ok {
		if meta, ok := call["metadata"].(map[string]any); ok {
			if id := explicitTaskID(meta); id != "" {
				return id, nil
			}
		}
	}

	if id := explicitTaskID(payload); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("%w: no routing key in voice payload", domain.ErrUnroutableEvent)
}

func explicitTaskID(payload map[string]any) string {
	raw, _ := payload["task_id"].(string)
	return validTaskID(raw)
}

// plusAddressTaskID parses "name+<uuid>@host" recipient addresses.
func plusAddressTaskID(recipient string) string {
	at := strings.LastIndex(recipient, "@")
	if at < 0 {
		return ""
	}
	local := recipient[:at]
	plus := strings.Index(local, "+")
	if plus < 0 {
		return ""
	}
	return validTaskID(local[plus+1:])
}

func validTaskID(raw string) string {
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}
