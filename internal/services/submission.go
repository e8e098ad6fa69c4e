// Package services – SubmissionService
//
// This file implements the submission handler: it validates a new
// artist/song request, posts it to the request channel for thumbs-up
// voting, attaches the bot's own reaction so voters have a one-click path,
// and records the request in the ledger. Side-effect ordering is strict:
// the vote message must exist on the platform before the request is
// recorded, so a stored message_id always points at a real message. The
// reverse failure (message posted, persist failed) leaves an orphaned
// message, which is logged and accepted.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/ledger"
	"github.com/tbourn/go-request-bot/internal/messenger"
	"github.com/tbourn/go-request-bot/internal/metrics"
)

// VoteEmoji is the single reaction affordance attached to every vote
// message. The sweeper subtracts the bot's own reaction from its count.
const VoteEmoji = "👍"

// maxFieldLen bounds artist, title, and link inputs. Platform messages cap
// at 2000 characters; three fields plus formatting must fit.
const maxFieldLen = 512

// SubmitInput carries the typed arguments of the submission command.
type SubmitInput struct {
	Artist    string
	Title     string
	Link      string
	Submitter domain.User
}

// SubmissionService validates and records new requests.
type SubmissionService struct {
	messenger messenger.Messenger
	ledger    *ledger.Ledger
	channelID string
	roles     domain.RoleTable
	limiter   *SubmitterLimiter
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewSubmissionService wires the submission handler. channelID is the
// public request channel; limiter may be nil to disable rate limiting.
func NewSubmissionService(m messenger.Messenger, l *ledger.Ledger, channelID string, roles domain.RoleTable, limiter *SubmitterLimiter, clock clockwork.Clock, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		messenger: m,
		ledger:    l,
		channelID: channelID,
		roles:     roles,
		limiter:   limiter,
		clock:     clock,
		log:       log.With().Str("component", "submission").Logger(),
	}
}

// Submit validates in, posts the vote message, and appends the request to
// the ledger.
//
// Errors:
//   - ErrEmptyField / ErrFieldTooLong for invalid input.
//   - ErrRateLimited when the submitter exceeds their bucket.
//   - messenger.ErrChannelUnavailable when the request channel cannot be
//     resolved; nothing is posted and nothing is recorded.
//
// The returned request carries the platform message id and the creation
// timestamp that starts its voting window. The artist's display form is
// preserved exactly as typed; case normalization happens only at role
// lookup time.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (domain.Request, error) {
	if err := validate(in); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return domain.Request{}, err
	}
	if s.limiter != nil && !s.limiter.Allow(in.Submitter.ID) {
		metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
		return domain.Request{}, ErrRateLimited
	}

	if err := s.messenger.ResolveChannel(ctx, s.channelID); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return domain.Request{}, fmt.Errorf("resolve request channel: %w", err)
	}

	content := fmt.Sprintf("**%s** (%s)\n%s\nVote by reacting %s\nRequested by %s",
		in.Title, in.Artist, in.Link, VoteEmoji, in.Submitter.Mention())

	msg, err := s.messenger.SendMessage(ctx, s.channelID, content)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return domain.Request{}, fmt.Errorf("post vote message: %w", err)
	}

	// The bot's own reaction seeds the one-click voting path. If it fails
	// the message still stands; voters can add the reaction themselves.
	if err := s.messenger.AddReaction(ctx, s.channelID, msg.ID, VoteEmoji); err != nil {
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to attach vote reaction")
	}

	req := domain.Request{
		Artist:      in.Artist,
		Name:        in.Title,
		Link:        in.Link,
		MessageID:   msg.ID,
		CreatedAt:   s.clock.Now().Unix(),
		RequestedBy: in.Submitter.Name,
	}
	s.ledger.Append(req)
	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	metrics.RequestsPending.Set(float64(s.ledger.Len()))

	// Categorization is case-insensitive; the stored artist keeps its
	// display form.
	s.log.Info().
		Str("artist", req.Artist).
		Str("name", req.Name).
		Str("message_id", req.MessageID).
		Str("requested_by", req.RequestedBy).
		Str("role_group", s.roles.Lookup(req.Artist)).
		Msg("request recorded")
	return req, nil
}

func validate(in SubmitInput) error {
	for _, f := range []string{in.Artist, in.Title, in.Link} {
		if strings.TrimSpace(f) == "" {
			return ErrEmptyField
		}
		if utf8.RuneCountInString(f) > maxFieldLen {
			return ErrFieldTooLong
		}
	}
	return nil
}
