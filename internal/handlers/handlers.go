// partyline - Birthday party RSVP service with WhatsApp relay
// Copyright (C) 2026  partyline contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/clock"
	"github.com/jredh-dev/partyline/internal/database"
	"github.com/jredh-dev/partyline/internal/groups"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/party"
	"github.com/jredh-dev/partyline/internal/reminder"
	"github.com/jredh-dev/partyline/internal/webhook"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// StatusNotifier tells an attendee about an approval decision.
type StatusNotifier interface {
	StatusChanged(ctx context.Context, a models.Attendee, old models.ApprovalStatus) (bool, error)
}

// ReminderDispatcher runs a reminder broadcast.
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, opts reminder.Options) (*reminder.Report, error)
}

// GroupBuilder creates or fills the party group.
type GroupBuilder interface {
	Build(ctx context.Context, req groups.Request) (*groups.Result, error)
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store     database.Store
	Processor *webhook.Processor
	Secret    webhook.Verifier
	Notifier  StatusNotifier
	Reminders ReminderDispatcher
	Groups    GroupBuilder
	Party     party.Details
	Clock     clock.Clock // nil uses clock.Real
	Log       zerolog.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     database.Store
	processor *webhook.Processor
	secret    webhook.Verifier
	notifier  StatusNotifier
	reminders ReminderDispatcher
	groups    GroupBuilder
	party     party.Details
	clock     clock.Clock
	log       zerolog.Logger
}

// New creates a Handler.
func New(d Deps) *Handler {
	clk := d.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Handler{
		store:     d.Store,
		processor: d.Processor,
		secret:    d.Secret,
		notifier:  d.Notifier,
		reminders: d.Reminders,
		groups:    d.Groups,
		party:     d.Party,
		clock:     clk,
		log:       d.Log.With().Str("component", "handlers").Logger(),
	}
}

// Routes registers every endpoint on r. admin guards the /api/admin routes.
// The reminder broadcast runs for N times the message delay, so it is
// mounted outside the request timeout.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler, timeout time.Duration) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/webhooks/whatsapp", h.WebhookProbe)
		r.Post("/webhooks/whatsapp", h.Webhook)

		r.Post("/api/rsvps", h.SubmitRSVP)
		r.Get("/party.ics", h.Calendar)
		r.Get("/api/party", h.Party)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/api/admin/rsvps", h.ListRSVPs)
			r.Post("/api/admin/rsvps", h.CreateRSVP)
			r.Post("/api/admin/rsvps/{id}/status", h.UpdateRSVPStatus)
			r.Post("/api/admin/guests/{id}/status", h.UpdateGuestStatus)
			r.Post("/api/admin/groups", h.CreateGroup)
		})
	})

	r.With(admin).Post("/api/admin/reminders", h.SendReminders)
}

// --- helpers ---

func jsonOK(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
