// Package channel contains the pure normalizers that map provider-specific
// payload shapes onto the canonical event. Normalizers never perform I/O
// and never mutate their input.
package channel

import (
	"maps"
	"time"

	"github.com/voxtask/voxtask/internal/domain"
)

// Email providers disagree on field naming; each list is a fixed priority
// order, first non-empty wins.
var (
	senderFields  = []string{"from", "sender", "From"}
	subjectFields = []string{"subject", "Subject"}
	bodyFields    = []string{"text", "plain", "body-plain", "body"}
)

const (
	unknownSender  = "unknown"
	missingSubject = "(no subject)"
)

// NormalizeEmail maps an inbound email payload to a canonical
// email.received event. The raw payload is carried through opaquely for
// audit; only the fields the core needs are resolved.
func NormalizeEmail(raw map[string]any, occurredAt time.Time) (*domain.CanonicalEvent, error) {
	taskID, err := ResolveEmailTaskID(raw)
	if err != nil {
		return nil, err
	}

	sender := firstNonEmpty(raw, senderFields)
	if sender == "" {
		sender = unknownSender
	}
	subject := firstNonEmpty(raw, subjectFields)
	if subject == "" {
		subject = missingSubject
	}
	body := firstNonEmpty(raw, bodyFields)

	payload := maps.Clone(raw)
	payload["from"] = sender
	payload["subject"] = subject
	payload["body"] = body

	return &domain.CanonicalEvent{
		TaskID:     taskID,
		EventType:  domain.EventEmailReceived,
		Channel:    domain.ChannelEmail,
		OccurredAt: occurredAt,
		Payload:    payload,
	}, nil
}

// firstNonEmpty resolves a value from synonymous field names by fixed
// priority order.
func firstNonEmpty(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
