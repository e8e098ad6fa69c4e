// Package discord binds the bot to the Discord REST API. The Client
// implements messenger.Messenger over plain HTTPS; the interactions
// webhook (interactions.go) receives slash commands without a gateway
// connection. Everything else in the repository talks to the abstract
// messenger interface, never to this package's wire types.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/messenger"
)

// DefaultBaseURL is the production Discord REST endpoint.
const DefaultBaseURL = "https://discord.com/api/v10"

// Client is a minimal Discord REST client implementing
// messenger.Messenger. Safe for concurrent use.
type Client struct {
	// BaseURL may be overridden before first use (tests point it at an
	// httptest server).
	BaseURL string

	http  *http.Client
	token string
	log   zerolog.Logger
}

// NewClient returns a client authenticating as the given bot token.
func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
		log:     log.With().Str("component", "discord").Logger(),
	}
}

// apiMessage is the subset of Discord's message object the bot consumes.
type apiMessage struct {
	ID        string        `json:"id"`
	ChannelID string        `json:"channel_id"`
	Content   string        `json:"content"`
	Reactions []apiReaction `json:"reactions"`
}

type apiReaction struct {
	Emoji struct {
		Name string `json:"name"`
	} `json:"emoji"`
	Count int `json:"count"`
}

func (m *apiMessage) toMessage() *messenger.Message {
	out := &messenger.Message{ID: m.ID, ChannelID: m.ChannelID, Content: m.Content}
	for _, r := range m.Reactions {
		out.Reactions = append(out.Reactions, messenger.Reaction{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return out
}

// statusError carries a non-2xx REST response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("discord api: status %d: %s", e.Status, e.Body)
}

// ResolveChannel implements messenger.Messenger. A 404 or 403 means the
// channel does not exist or the bot cannot see it.
func (c *Client) ResolveChannel(ctx context.Context, channelID string) error {
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil, nil)
	if isStatus(err, http.StatusNotFound, http.StatusForbidden) {
		return messenger.ErrChannelUnavailable
	}
	return err
}

// SendMessage implements messenger.Messenger.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*messenger.Message, error) {
	var out apiMessage
	err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages",
		map[string]string{"content": content}, &out)
	if isStatus(err, http.StatusNotFound, http.StatusForbidden) {
		return nil, messenger.ErrChannelUnavailable
	}
	if err != nil {
		return nil, err
	}
	return out.toMessage(), nil
}

// AddReaction implements messenger.Messenger. The emoji travels in the
// path and must be URL-escaped.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji))
	err := c.do(ctx, http.MethodPut, path, nil, nil)
	if isStatus(err, http.StatusNotFound) {
		return messenger.ErrMessageNotFound
	}
	return err
}

// FetchMessage implements messenger.Messenger.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*messenger.Message, error) {
	var out apiMessage
	err := c.do(ctx, http.MethodGet, "/channels/"+channelID+"/messages/"+messageID, nil, &out)
	if isStatus(err, http.StatusNotFound) {
		return nil, messenger.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return out.toMessage(), nil
}

// RegisterCommands upserts the bot's global slash commands. Discord treats
// registration as idempotent per command name, so this runs on every
// startup.
func (c *Client) RegisterCommands(ctx context.Context, appID string) error {
	cmd := map[string]any{
		"name":        "request",
		"description": "Submit a new request",
		"options": []map[string]any{
			{"type": 3, "name": "artist", "description": "Artist name", "required": true},
			{"type": 3, "name": "name", "description": "Name of the request", "required": true},
			{"type": 3, "name": "link", "description": "Spotify, YouTube, SoundCloud link", "required": true},
		},
	}
	return c.do(ctx, http.MethodPost, "/applications/"+appID+"/commands", cmd, nil)
}

// do performs one REST call, encoding body and decoding the response into
// out when non-nil. Non-2xx responses come back as *statusError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &statusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isStatus reports whether err is a statusError with one of the given
// codes.
func isStatus(err error, codes ...int) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	for _, c := range codes {
		if se.Status == c {
			return true
		}
	}
	return false
}

var _ messenger.Messenger = (*Client)(nil)
