// Package inbox implements the pull-based email channel: a read-only IMAP
// poll that turns previously-unseen messages into canonical events and
// feeds them to the orchestrator. All provider I/O happens here, strictly
// before any task row lock is taken, behind hard timeouts and a bounded
// worker pool so a slow mailbox cannot stall unrelated ingestion.
package inbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"golang.org/x/sync/errgroup"

	"github.com/voxtask/voxtask/internal/channel"
	"github.com/voxtask/voxtask/internal/config"
	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/service"
)

// Ingestor is the orchestrator surface the poller needs.
type Ingestor interface {
	Ingest(ctx context.Context, event *domain.CanonicalEvent) (*service.IngestResult, error)
}

// Poller polls one IMAP mailbox for unread messages.
type Poller struct {
	cfg      config.IMAPConfig
	ingestor Ingestor
}

// NewPoller creates a new Poller.
func NewPoller(cfg config.IMAPConfig, ingestor Ingestor) *Poller {
	return &Poller{cfg: cfg, ingestor: ingestor}
}

// Report summarizes one poll cycle.
type Report struct {
	Fetched  int `json:"fetched"`
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
}

// Poll fetches unread messages and ingests one canonical event per
// message. The fetch is read-only (envelopes only, the mailbox is never
// mutated) and bounded to the most recent FetchLimit messages. Per-item
// failures are skipped and logged, never aborting the batch; on timeout
// the whole poll is abandoned with no partial state mutation, since
// ingestion only starts after the fetch completed.
func (p *Poller) Poll(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	messages, err := p.fetchUnseen(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Fetched: len(messages)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, msg := range messages {
		g.Go(func() error {
			event, err := channel.NormalizeEmail(messagePayload(msg), messageDate(msg))
			if err == nil {
				_, err = p.ingestor.Ingest(ctx, event)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Skipped++
				slog.Warn("skipping inbox message", "seq_num", msg.SeqNum, "error", err)
				return nil
			}
			report.Ingested++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("inbox poll finished",
		"fetched", report.Fetched,
		"ingested", report.Ingested,
		"skipped", report.Skipped,
	)
	return report, nil
}

// fetchUnseen connects, searches UNSEEN, and fetches envelopes for at most
// the FetchLimit most recent matches. The whole session, dial and TLS
// handshake included, is bounded by the poll deadline: the connection
// deadline is pinned before the greeting is read, so a server that accepts
// and then goes silent cannot hold the poll past its budget.
func (p *Poller) fetchUnseen(ctx context.Context) ([]*imap.Message, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", p.cfg.Addr())
	if err != nil {
		return nil, wrapTimeout(fmt.Errorf("dial imap %s: %w", p.cfg.Addr(), err))
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set imap deadline: %w", err)
		}
	}

	c, err := client.New(tls.Client(conn, &tls.Config{ServerName: p.cfg.Host}))
	if err != nil {
		conn.Close()
		return nil, wrapTimeout(fmt.Errorf("imap handshake %s: %w", p.cfg.Addr(), err))
	}
	defer func() {
		if err := c.Logout(); err != nil {
			slog.Debug("imap logout failed", "error", err)
		}
	}()
	if deadline, ok := ctx.Deadline(); ok {
		// Commands share the remaining budget instead of each getting a
		// fresh full PollTimeout.
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		return nil, wrapTimeout(fmt.Errorf("imap login: %w", err))
	}

	// Read-only select: fetching must not flip \Seen flags.
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, wrapTimeout(fmt.Errorf("select inbox: %w", err))
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, wrapTimeout(fmt.Errorf("search unseen: %w", err))
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > p.cfg.FetchLimit {
		ids = ids[len(ids)-p.cfg.FetchLimit:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	ch := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope}, ch)
	}()

	var messages []*imap.Message
	for msg := range ch {
		messages = append(messages, msg)
	}

	select {
	case err := <-done:
		if err != nil {
			return nil, wrapTimeout(fmt.Errorf("fetch envelopes: %w", err))
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrChannelTimeout, ctx.Err())
	}

	return messages, nil
}

// messagePayload maps an IMAP envelope to the email webhook payload shape,
// so the same normalizer serves both the push and pull paths.
func messagePayload(msg *imap.Message) map[string]any {
	payload := map[string]any{
		"source":  "imap",
		"seq_num": msg.SeqNum,
	}
	env := msg.Envelope
	if env == nil {
		return payload
	}

	payload["subject"] = env.Subject
	payload["message_id"] = env.MessageId
	if !env.Date.IsZero() {
		payload["date"] = env.Date.UTC().Format(time.RFC3339)
	}
	if len(env.From) > 0 {
		payload["from"] = env.From[0].Address()
	}
	if len(env.To) > 0 {
		payload["to"] = env.To[0].Address()
	}
	return payload
}

func messageDate(msg *imap.Message) time.Time {
	if msg.Envelope != nil && !msg.Envelope.Date.IsZero() {
		return msg.Envelope.Date.UTC()
	}
	return time.Now().UTC()
}

func wrapTimeout(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrChannelTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrChannelTimeout, err)
	}
	return err
}
