package inbox

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxtask/voxtask/internal/channel"
	"github.com/voxtask/voxtask/internal/config"
	"github.com/voxtask/voxtask/internal/domain"
)

const testTaskID = "3f1e9c2a-8f5d-4b6e-9a1c-2d3e4f5a6b7c"

func TestMessagePayload(t *testing.T) {
	date := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	msg := &imap.Message{
		SeqNum: 42,
		Envelope: &imap.Envelope{
			Date:      date,
			Subject:   "Re: dinner reservation",
			MessageId: "<abc@mail.example>",
			From: []*imap.Address{
				{MailboxName: "maitre", HostName: "restaurant.example"},
			},
			To: []*imap.Address{
				{MailboxName: "operator+" + testTaskID, HostName: "voxtask.example"},
			},
		},
	}

	payload := messagePayload(msg)
	assert.Equal(t, "maitre@restaurant.example", payload["from"])
	assert.Equal(t, "operator+"+testTaskID+"@voxtask.example", payload["to"])
	assert.Equal(t, "Re: dinner reservation", payload["subject"])
	assert.Equal(t, "2026-08-30T09:30:00Z", payload["date"])
	assert.Equal(t, "imap", payload["source"])
}

// The envelope payload must be normalizable end to end, including routing
// through the recipient plus-address.
func TestMessagePayloadNormalizes(t *testing.T) {
	msg := &imap.Message{
		Envelope: &imap.Envelope{
			Date:    time.Now(),
			Subject: "hello",
			From: []*imap.Address{
				{MailboxName: "a", HostName: "x.com"},
			},
			To: []*imap.Address{
				{MailboxName: "operator+" + testTaskID, HostName: "voxtask.example"},
			},
		},
	}

	event, err := channel.NormalizeEmail(messagePayload(msg), messageDate(msg))
	require.NoError(t, err)
	assert.Equal(t, testTaskID, event.TaskID)
	assert.Equal(t, domain.EventEmailReceived, event.EventType)
	assert.Equal(t, "a@x.com", event.Payload["from"])
}

// A server that accepts the connection and then never speaks must not
// hold the poll past its deadline; the poll is abandoned with a timeout
// error and no ingestion happens.
func TestPollAbandonedWhenServerUnresponsive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	p := NewPoller(config.IMAPConfig{
		Host:        host,
		Port:        port,
		Username:    "operator",
		Password:    "secret",
		PollTimeout: 500 * time.Millisecond,
		FetchLimit:  20,
		Workers:     2,
	}, nil)

	start := time.Now()
	_, err = p.Poll(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChannelTimeout)
	assert.Less(t, elapsed, 3*time.Second, "poll must be abandoned at its deadline")

	select {
	case conn := <-accepted:
		conn.Close()
	default:
	}
}

func TestMessagePayloadWithoutEnvelope(t *testing.T) {
	payload := messagePayload(&imap.Message{SeqNum: 7})
	assert.Equal(t, uint32(7), payload["seq_num"])

	// No envelope means no routing key: the message must be skipped, not
	// guessed at.
	_, err := channel.NormalizeEmail(payload, time.Now())
	require.ErrorIs(t, err, domain.ErrUnroutableEvent)
}
