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

// Package wasender is a small client for the WasenderAPI WhatsApp gateway.
//
// Only the three endpoints the party service needs are covered: sending a
// text message, creating a group and adding participants to a group.
package wasender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jredh-dev/partyline/internal/phone"
)

// DefaultBaseURL is the public WasenderAPI endpoint.
const DefaultBaseURL = "https://www.wasenderapi.com/api"

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("wasender api key not configured")

// Sender delivers a text message to one phone number. Keeping it this small
// lets the notifier and the reminder dispatcher be tested without HTTP.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Client talks to the WasenderAPI REST interface.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns a Client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Send delivers text to the number. The recipient is normalized to +<digits>.
func (c *Client) Send(ctx context.Context, to, text string) error {
	_, err := c.post(ctx, "/send-message", sendRequest{To: phone.Normalize(to), Text: text})
	return err
}

type groupRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

// groupResponse covers the id fields seen across API versions, both at the
// top level and nested under data.
type groupResponse struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	JID     string `json:"jid"`
	Data    *struct {
		ID      string `json:"id"`
		GroupID string `json:"group_id"`
		JID     string `json:"jid"`
	} `json:"data"`
}

func (g groupResponse) groupJID() string {
	for _, s := range []string{g.ID, g.GroupID, g.JID} {
		if s != "" {
			return s
		}
	}
	if g.Data != nil {
		for _, s := range []string{g.Data.ID, g.Data.GroupID, g.Data.JID} {
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// CreateGroup creates a group with the given participant JIDs and returns
// the new group's JID.
func (c *Client) CreateGroup(ctx context.Context, name string, participants []string) (string, error) {
	body, err := c.post(ctx, "/groups", groupRequest{Name: name, Participants: participants})
	if err != nil {
		return "", err
	}

	var resp groupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode group response: %w", err)
	}
	jid := resp.groupJID()
	if jid == "" {
		return "", fmt.Errorf("group response has no id: %s", string(body))
	}
	return jid, nil
}

type participantsRequest struct {
	Participants []string `json:"participants"`
}

// AddParticipants adds participant JIDs to an existing group.
func (c *Client) AddParticipants(ctx context.Context, groupJID string, participants []string) error {
	path := "/groups/" + url.PathEscape(groupJID) + "/participants/add"
	_, err := c.post(ctx, path, participantsRequest{Participants: participants})
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wasender %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
