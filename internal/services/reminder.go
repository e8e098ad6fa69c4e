// Package services – Reminder
//
// This file implements the reminder broadcaster: a stateless periodic job
// that nudges every configured role group to vote. It never touches the
// ledger; a failed broadcast is logged and simply retried by the next
// scheduled run.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/messenger"
	"github.com/tbourn/go-request-bot/internal/metrics"
)

// Reminder broadcasts periodic vote nudges to the request channel.
type Reminder struct {
	messenger messenger.Messenger
	channelID string
	roles     domain.RoleTable
	log       zerolog.Logger
}

// NewReminder wires the reminder broadcaster.
func NewReminder(m messenger.Messenger, channelID string, roles domain.RoleTable, log zerolog.Logger) *Reminder {
	return &Reminder{
		messenger: m,
		channelID: channelID,
		roles:     roles,
		log:       log.With().Str("component", "reminder").Logger(),
	}
}

// Broadcast mentions every configured role group in the request channel.
func (r *Reminder) Broadcast(ctx context.Context) error {
	if err := r.messenger.ResolveChannel(ctx, r.channelID); err != nil {
		metrics.RemindersTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("resolve request channel: %w", err)
	}

	mentions := make([]string, 0)
	for _, id := range r.roles.RoleIDs() {
		mentions = append(mentions, domain.RoleMention(id))
	}

	content := "Vote reminder! " + strings.Join(mentions, " ")
	if _, err := r.messenger.SendMessage(ctx, r.channelID, content); err != nil {
		metrics.RemindersTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("send reminder: %w", err)
	}
	metrics.RemindersTotal.WithLabelValues("sent").Inc()
	r.log.Info().Int("roles", len(mentions)).Msg("vote reminder sent")
	return nil
}
