// Package messenger abstracts the chat-platform operations the bot
// consumes: posting messages, attaching reactions, and reading back a
// message's current reaction tallies. The concrete implementation lives in
// internal/discord; services depend only on this interface so sweeps and
// submissions can be exercised against a fake.
package messenger

import "context"

// Reaction is one emoji tally on a message. Count includes every reactor,
// the bot's own automatic reaction included.
type Reaction struct {
	Emoji string
	Count int
}

// Message is a posted platform message together with its reactions as of
// the fetch. ID is the platform message identifier used as request
// identity throughout the system.
type Message struct {
	ID        string
	ChannelID string
	Content   string
	Reactions []Reaction
}

// Reaction returns the tally for the given emoji and whether it was
// present on the message at all.
func (m *Message) Reaction(emoji string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.Emoji == emoji {
			return r, true
		}
	}
	return Reaction{}, false
}

// Messenger is the messaging collaborator consumed by the bot services.
//
// Semantics:
//   - ResolveChannel verifies the channel exists and is visible to the
//     bot, returning ErrChannelUnavailable otherwise. Scheduled jobs call
//     it up front so an unreachable channel skips the whole cycle instead
//     of failing halfway through.
//   - SendMessage resolves the channel and posts content, returning the
//     created message. An unresolvable channel yields ErrChannelUnavailable
//     and nothing is posted.
//   - AddReaction attaches the bot's own reaction to a message so voters
//     have a one-click path.
//   - FetchMessage reads a previously posted message with its current
//     reaction tallies. A deleted or unknown message yields
//     ErrMessageNotFound.
//
// All methods honor context cancellation; callers bound slow fetches with
// a per-call timeout.
type Messenger interface {
	ResolveChannel(ctx context.Context, channelID string) error
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}
