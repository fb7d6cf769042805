package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/jredh-dev/partyline/internal/webhook"
)

// WebhookProbe handles GET /webhooks/whatsapp. Providers call it when the
// webhook URL is registered.
func (h *Handler) WebhookProbe(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "WhatsApp webhook endpoint is active",
	})
}

// Webhook handles POST /webhooks/whatsapp.
//
// Only an unreadable or non-JSON body gets a 400, and a rejected secret a
// 401 when enforcement is on. Every other delivery is answered with 200 and
// the processing Result, whatever the outcome, so the provider does not
// redeliver.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "could not read body", http.StatusBadRequest)
		return
	}

	in, parseErr := webhook.Parse(body)
	if errors.Is(parseErr, webhook.ErrMalformed) {
		h.log.Warn().Int("bytes", len(body)).Msg("malformed webhook body")
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	check := h.secret.Check(r, in.Secret)
	if check == webhook.SecretMissing || check == webhook.SecretInvalid {
		h.log.Warn().Str("secret", check.String()).Bool("enforced", h.secret.Enforce).Msg("webhook secret check failed")
	}
	if !h.secret.Allowed(check) {
		jsonError(w, "invalid webhook secret", http.StatusUnauthorized)
		return
	}

	jsonOK(w, http.StatusOK, h.processor.Handle(r.Context(), in, parseErr))
}
