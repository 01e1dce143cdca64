package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voxtask/voxtask/internal/channel"
	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/handler/dto"
)

// handleEmailWebhook ingests one inbound email event.
// @Summary Email provider webhook
// @Description Normalizes a provider email payload and ingests it. Accepts flexible field naming across providers.
// @Tags channels
// @Accept json
// @Produce json
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /email/webhook [post]
func (h *Handler) handleEmailWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	event, err := channel.NormalizeEmail(payload, time.Now().UTC())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.orchestrator.Ingest(ctx, event)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToIngestResponse(result))
}

// handleVoiceWebhook ingests one voice call-lifecycle event.
// @Summary Voice provider webhook
// @Description Normalizes a voice provider message and ingests it. The acknowledgment body depends on the provider tag.
// @Tags channels
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /voice/webhook [post]
func (h *Handler) handleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	event, err := channel.NormalizeVoice(payload, time.Now().UTC())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.orchestrator.Ingest(ctx, event)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, voiceAck(event, dto.ToIngestResponse(result)))
}

// voiceAck builds the per-tag acknowledgment body the provider expects.
func voiceAck(event *domain.CanonicalEvent, result any) map[string]any {
	switch event.EventType {
	case domain.EventVoiceCallStarted:
		return map[string]any{
			"assistant": map[string]any{
				"firstMessage": "Hello, how can I help you today?",
			},
			"ingest": result,
		}
	case domain.EventVoiceFunctionCall:
		name := "unknown"
		if fn, ok := event.Payload["function"].(map[string]any); ok {
			if s, ok := fn["name"].(string); ok && s != "" {
				name = s
			}
		}
		return map[string]any{
			"result": fmt.Sprintf("Function %s has been noted and is being processed.", name),
			"ingest": result,
		}
	case domain.EventVoiceUnhandled:
		return map[string]any{
			"status": "unhandled",
			"type":   event.Payload["type"],
			"ingest": result,
		}
	default:
		return map[string]any{
			"status": "ok",
			"ingest": result,
		}
	}
}

// handleInboxPoll triggers one inbox poll cycle.
// @Summary Poll the IMAP inbox
// @Description Fetches unread messages and ingests one event per routable message. Read-only against the mailbox.
// @Tags channels
// @Produce json
// @Success 200 {object} inbox.Report
// @Failure 504 {object} dto.ErrorResponse
// @Router /email/inbox/poll [post]
func (h *Handler) handleInboxPoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.poller == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":  "not_configured",
			"message": "IMAP credentials not configured",
		})
		return
	}

	report, err := h.poller.Poll(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
