package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"document-gpt/internal/conversation"
	"document-gpt/internal/models"
	"document-gpt/internal/store"
)

// TwilioWebhook handles inbound messages from the messaging gateway.
// Whatever happens inside, the gateway always gets a 200 OK back so it
// never retries or surfaces an error to the correspondent.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Error().Err(err).Msg("webhook form parse failed")
	} else {
		query := r.FormValue("Body")
		senderID := r.FormValue("From")
		userName := r.FormValue("ProfileName")

		if senderID != "" {
			// concurrent messages from one sender would race on the
			// persisted record
			unlock := h.senders.Lock(senderID)
			h.handleInbound(r.Context(), senderID, userName, query)
			unlock()
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) handleInbound(ctx context.Context, senderID, userName, query string) {
	user, err := h.users.Get(ctx, senderID)
	if err != nil {
		log.Error().Err(err).Str("sender", senderID).Msg("loading user failed")
		return
	}

	var prior []conversation.Turn
	if user != nil {
		msgs := user.Messages
		if len(msgs) > h.historyWindow {
			msgs = msgs[len(msgs)-h.historyWindow:]
		}
		for _, m := range msgs {
			prior = append(prior, conversation.Turn{Query: m.Query, Response: m.Response})
		}
	}

	reply := h.engine.ConverseBackend(ctx, prior, query)

	if user != nil {
		if err := h.users.AppendMessage(ctx, senderID, query, reply, user.MessageCount); err != nil {
			log.Error().Err(err).Str("sender", senderID).Msg("appending message failed")
		}
	} else {
		newUser := &store.User{
			SenderID: senderID,
			UserName: userName,
			Messages: []store.Message{{
				Query:     query,
				Response:  reply,
				CreatedAt: time.Now().Format(models.MessageTimeLayout),
			}},
			MessageCount: 1,
			Mobile:       mobileFromSender(senderID),
			Channel:      models.WhatsAppChannel,
		}
		if err := h.users.Create(ctx, newUser); err != nil {
			log.Error().Err(err).Str("sender", senderID).Msg("creating user failed")
		}
	}

	// fire-and-forget: a failed send is logged, never surfaced
	if err := h.gateway.SendMessage(ctx, senderID, reply); err != nil {
		log.Warn().Err(err).Str("sender", senderID).Msg("gateway send failed")
	}
}

// mobileFromSender strips the channel prefix from ids like
// "whatsapp:+14155551234".
func mobileFromSender(senderID string) string {
	parts := strings.Split(senderID, ":")
	return parts[len(parts)-1]
}
