// Package services – Sweeper
//
// This file implements the maturation sweeper: the periodic job that finds
// requests past their voting window, resolves their reaction tallies,
// removes them from the ledger, archives the outcome, and reports a
// leaderboard to the admin channel. A request whose tally cannot be
// fetched stays in the ledger and re-qualifies on the next sweep; retry is
// re-evaluation, not an explicit retry state.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/ledger"
	"github.com/tbourn/go-request-bot/internal/messenger"
	"github.com/tbourn/go-request-bot/internal/metrics"
)

// Archive records resolved requests for history. Implemented by
// repo.Archive; failures are logged and never block resolution.
type Archive interface {
	Record(ctx context.Context, r domain.ResolvedRequest) error
}

// SweeperConfig carries the tunables of the maturation sweep.
type SweeperConfig struct {
	// RequestChannelID is where vote messages live.
	RequestChannelID string
	// AdminChannelID receives the leaderboard report.
	AdminChannelID string
	// Window is how long a request stays open for voting (48h in the
	// reference deployment). The boundary is inclusive.
	Window time.Duration
	// FetchTimeout bounds each tally fetch so one hung call cannot stall
	// the whole sweep chain. Zero disables the bound.
	FetchTimeout time.Duration
	// TopN is the leaderboard size (5 in the reference deployment).
	TopN int
}

// Sweeper resolves matured requests.
type Sweeper struct {
	cfg       SweeperConfig
	messenger messenger.Messenger
	ledger    *ledger.Ledger
	archive   Archive
	clock     clockwork.Clock
	log       zerolog.Logger
}

// tallyKind classifies the outcome of one tally fetch, making the
// retry-vs-resolve policy an explicit branch.
type tallyKind int

const (
	// tallyFetched: the message was read and the vote reaction located.
	tallyFetched tallyKind = iota
	// tallyNoReaction: the message was read but the vote reaction is gone
	// (everyone un-reacted, or the affordance was removed). The request is
	// resolved with zero votes rather than wedged forever.
	tallyNoReaction
	// tallyFailed: the message could not be read (deleted, network error,
	// timeout). The request stays in the ledger and is retried next sweep.
	tallyFailed
)

// tally is the per-request outcome of one sweep pass.
type tally struct {
	req   domain.Request
	kind  tallyKind
	votes int
}

// NewSweeper wires the maturation sweeper. archive may be nil to skip
// history recording.
func NewSweeper(m messenger.Messenger, l *ledger.Ledger, archive Archive, cfg SweeperConfig, clock clockwork.Clock, log zerolog.Logger) *Sweeper {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Sweeper{
		cfg:       cfg,
		messenger: m,
		ledger:    l,
		archive:   archive,
		clock:     clock,
		log:       log.With().Str("component", "sweeper").Logger(),
	}
}

// Sweep executes one maturation pass. It is safe to call concurrently with
// submissions: the snapshot-then-remove pattern means a request submitted
// mid-sweep is either in the snapshot or picked up next cycle, never lost.
func (s *Sweeper) Sweep(ctx context.Context) error {
	metrics.SweepsTotal.Inc()
	defer func() { metrics.RequestsPending.Set(float64(s.ledger.Len())) }()

	now := s.clock.Now()
	var eligible []domain.Request
	for _, r := range s.ledger.Snapshot() {
		if r.Matured(now, s.cfg.Window) {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		s.log.Debug().Msg("sweep: nothing matured")
		return nil
	}

	// An unreachable channel skips the whole cycle; requests stay put.
	for _, ch := range []string{s.cfg.AdminChannelID, s.cfg.RequestChannelID} {
		if err := s.messenger.ResolveChannel(ctx, ch); err != nil {
			return fmt.Errorf("resolve channel %s: %w", ch, err)
		}
	}

	// Fetch tallies without holding the ledger lock; fetches are
	// sequential and individually bounded.
	var processed []tally
	for _, r := range eligible {
		out := s.resolve(ctx, r)
		if out.kind == tallyFailed {
			metrics.TallyFetchFailuresTotal.Inc()
			continue
		}
		processed = append(processed, out)
	}

	if len(processed) > 0 {
		ids := make([]string, len(processed))
		for i, p := range processed {
			ids[i] = p.req.MessageID
			s.record(ctx, p, now)
		}
		s.ledger.Remove(ids)
		metrics.RequestsResolvedTotal.Add(float64(len(processed)))

		if err := s.report(ctx, processed); err != nil {
			s.log.Error().Err(err).Msg("failed to deliver leaderboard report")
		}
	}

	// Summary line: makes silent fetch failures observable even when no
	// platform message was sent.
	s.log.Info().
		Int("processed", len(processed)).
		Int("eligible", len(eligible)).
		Msg("sweep complete")
	return nil
}

// resolve fetches the current reaction tally for one request and computes
// its bias-corrected vote count: the bot's own automatic reaction placed
// at submission time is subtracted, so a count of 1 means zero votes.
func (s *Sweeper) resolve(ctx context.Context, r domain.Request) tally {
	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	msg, err := s.messenger.FetchMessage(fetchCtx, s.cfg.RequestChannelID, r.MessageID)
	if err != nil {
		evt := s.log.Warn().Str("message_id", r.MessageID).Str("name", r.Name)
		if errors.Is(err, messenger.ErrMessageNotFound) {
			evt.Msg("vote message gone; will retry next sweep")
		} else {
			evt.Err(err).Msg("tally fetch failed; will retry next sweep")
		}
		return tally{req: r, kind: tallyFailed}
	}

	reaction, ok := msg.Reaction(VoteEmoji)
	if !ok {
		return tally{req: r, kind: tallyNoReaction}
	}
	votes := reaction.Count - 1
	if votes < 0 {
		votes = 0
	}
	return tally{req: r, kind: tallyFetched, votes: votes}
}

// record archives one resolved request. Archive failures are logged and do
// not block resolution.
func (s *Sweeper) record(ctx context.Context, p tally, now time.Time) {
	if s.archive == nil {
		return
	}
	err := s.archive.Record(ctx, domain.ResolvedRequest{
		MessageID:   p.req.MessageID,
		Artist:      p.req.Artist,
		Name:        p.req.Name,
		Link:        p.req.Link,
		RequestedBy: p.req.RequestedBy,
		Votes:       p.votes,
		SubmittedAt: time.Unix(p.req.CreatedAt, 0).UTC(),
		ResolvedAt:  now.UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("message_id", p.req.MessageID).Msg("failed to archive resolved request")
	}
}

// report ranks the processed requests and posts the leaderboard to the
// admin channel. Requests resolved without a locatable vote reaction carry
// no tally; if none carried one, a "no votes found" notice is sent instead
// of silence so the admin channel always reflects sweep activity.
func (s *Sweeper) report(ctx context.Context, processed []tally) error {
	var withTally []tally
	for _, p := range processed {
		if p.kind == tallyFetched {
			withTally = append(withTally, p)
		}
	}
	if len(withTally) == 0 {
		_, err := s.messenger.SendMessage(ctx, s.cfg.AdminChannelID, "No votes found for processed requests.")
		return err
	}

	// Stable sort: ties keep their original submission order.
	sort.SliceStable(withTally, func(i, j int) bool {
		return withTally[i].votes > withTally[j].votes
	})
	if len(withTally) > s.cfg.TopN {
		withTally = withTally[:s.cfg.TopN]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Top %d Requests (%s period):**\n", s.cfg.TopN, formatWindow(s.cfg.Window))
	for _, p := range withTally {
		fmt.Fprintf(&b, "%s (%s): %s - %d votes\n", p.req.Name, p.req.Artist, p.req.Link, p.votes)
	}

	_, err := s.messenger.SendMessage(ctx, s.cfg.AdminChannelID, b.String())
	return err
}

// formatWindow renders the voting window for the report header ("48h").
func formatWindow(w time.Duration) string {
	if w%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(w.Hours()))
	}
	return w.String()
}
