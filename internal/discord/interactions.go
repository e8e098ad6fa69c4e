// Package discord – interactions webhook.
//
// Discord delivers slash-command invocations to an HTTPS endpoint signed
// with the application's ed25519 key. This file verifies the signature,
// answers the PING handshake, and translates /request invocations into
// submission-service calls, replying ephemerally to the invoker (the
// public vote message is posted separately by the service).
package discord

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/messenger"
	"github.com/tbourn/go-request-bot/internal/services"
)

// Interaction types and callback types, per the Discord API.
const (
	interactionPing    = 1
	interactionCommand = 2

	callbackPong           = 1
	callbackMessage        = 4
	messageFlagEphemeral   = 64
	signatureHeader        = "X-Signature-Ed25519"
	signatureTimestampHdr  = "X-Signature-Timestamp"
	submissionReplyTimeout = 3 * time.Second
)

// SubmissionHandler is the slice of the submission service the webhook
// needs; narrowed for tests.
type SubmissionHandler interface {
	Submit(ctx context.Context, in services.SubmitInput) (domain.Request, error)
}

// InteractionsHandler verifies and dispatches interaction callbacks.
type InteractionsHandler struct {
	pubKey      ed25519.PublicKey
	submissions SubmissionHandler
	log         zerolog.Logger
}

// NewInteractionsHandler builds the webhook handler from the application's
// hex-encoded ed25519 public key.
func NewInteractionsHandler(publicKeyHex string, submissions SubmissionHandler, log zerolog.Logger) (*InteractionsHandler, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &InteractionsHandler{
		pubKey:      ed25519.PublicKey(key),
		submissions: submissions,
		log:         log.With().Str("component", "interactions").Logger(),
	}, nil
}

// interaction is the subset of the interaction payload the bot consumes.
type interaction struct {
	Type int `json:"type"`
	Data struct {
		Name    string `json:"name"`
		Options []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
	} `json:"data"`
	Member *struct {
		User apiUser `json:"user"`
	} `json:"member"`
	User *apiUser `json:"user"`
}

type apiUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// display renders the legacy "name#discriminator" form when a
// discriminator exists, the plain username otherwise.
func (u apiUser) display() string {
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

// Handle is the gin handler for POST /interactions.
func (h *InteractionsHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}
	if !h.verify(c.Request, body) {
		c.String(http.StatusUnauthorized, "invalid request signature")
		return
	}

	var in interaction
	if err := json.Unmarshal(body, &in); err != nil {
		c.String(http.StatusBadRequest, "malformed interaction")
		return
	}

	switch in.Type {
	case interactionPing:
		c.JSON(http.StatusOK, gin.H{"type": callbackPong})
	case interactionCommand:
		h.handleCommand(c, &in)
	default:
		c.String(http.StatusBadRequest, "unsupported interaction type")
	}
}

// verify checks the ed25519 signature over timestamp+body.
func (h *InteractionsHandler) verify(r *http.Request, body []byte) bool {
	sig, err := hex.DecodeString(r.Header.Get(signatureHeader))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	ts := r.Header.Get(signatureTimestampHdr)
	if ts == "" {
		return false
	}
	return ed25519.Verify(h.pubKey, append([]byte(ts), body...), sig)
}

// handleCommand dispatches a slash command. The reply is always ephemeral:
// only the submitter sees the acknowledgment, distinct from the public
// vote message.
func (h *InteractionsHandler) handleCommand(c *gin.Context, in *interaction) {
	if in.Data.Name != "request" {
		h.reply(c, "Unknown command.")
		return
	}

	var invoker apiUser
	switch {
	case in.Member != nil:
		invoker = in.Member.User
	case in.User != nil:
		invoker = *in.User
	}

	input := services.SubmitInput{
		Submitter: domain.User{ID: invoker.ID, Name: invoker.display()},
	}
	for _, opt := range in.Data.Options {
		switch opt.Name {
		case "artist":
			input.Artist = opt.Value
		case "name":
			input.Title = opt.Value
		case "link":
			input.Link = opt.Value
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), submissionReplyTimeout)
	defer cancel()

	req, err := h.submissions.Submit(ctx, input)
	if err != nil {
		h.log.Warn().Err(err).Str("user", invoker.display()).Msg("submission rejected")
		h.reply(c, rejectionMessage(err))
		return
	}
	h.reply(c, fmt.Sprintf("Request added: %s (%s)", req.Name, req.Artist))
}

// reply sends an ephemeral channel message callback.
func (h *InteractionsHandler) reply(c *gin.Context, content string) {
	c.JSON(http.StatusOK, gin.H{
		"type": callbackMessage,
		"data": gin.H{
			"content": content,
			"flags":   messageFlagEphemeral,
		},
	})
}

// rejectionMessage maps service errors to user-facing text. Unexpected
// failures stay vague; details live in the logs.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyField):
		return "Artist, name and link are all required."
	case errors.Is(err, services.ErrFieldTooLong):
		return "One of the fields is too long."
	case errors.Is(err, services.ErrRateLimited):
		return "You are submitting too fast. Try again in a bit."
	case errors.Is(err, messenger.ErrChannelUnavailable):
		return "Error: Could not find requests channel."
	default:
		return "Something went wrong, please try again later."
	}
}
