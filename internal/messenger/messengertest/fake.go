// Package messengertest provides an in-memory Messenger for service tests.
// It records every sent message, supports scripted failures per channel or
// message, and lets tests adjust reaction tallies between sweeps.
package messengertest

import (
	"context"
	"strconv"
	"sync"

	"github.com/tbourn/go-request-bot/internal/messenger"
)

// Fake is an in-memory messenger.Messenger. Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	nextID   int
	messages map[string]*messenger.Message // keyed by message id

	// UnavailableChannels makes SendMessage fail with
	// ErrChannelUnavailable for the listed channel ids.
	unavailable map[string]bool

	// fetchErrs makes FetchMessage fail with the given error for a
	// specific message id.
	fetchErrs map[string]error

	sent      []*messenger.Message
	reactions []ReactionCall
}

// ReactionCall records one AddReaction invocation.
type ReactionCall struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// New returns an empty fake messenger.
func New() *Fake {
	return &Fake{
		messages:    map[string]*messenger.Message{},
		unavailable: map[string]bool{},
		fetchErrs:   map[string]error{},
	}
}

// MarkChannelUnavailable scripts ErrChannelUnavailable for a channel.
func (f *Fake) MarkChannelUnavailable(channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable[channelID] = true
}

// FailFetch scripts an error for FetchMessage on the given message id.
// A nil err clears the script, simulating the platform recovering.
func (f *Fake) FailFetch(messageID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fetchErrs, messageID)
		return
	}
	f.fetchErrs[messageID] = err
}

// SetReactionCount overrides the tally for emoji on a message, simulating
// community votes accumulating between sweeps. A count of zero removes
// the reaction entirely, as the platform does when the last reactor
// un-reacts.
func (f *Fake) SetReactionCount(messageID, emoji string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return
	}
	for i := range msg.Reactions {
		if msg.Reactions[i].Emoji == emoji {
			if count <= 0 {
				msg.Reactions = append(msg.Reactions[:i], msg.Reactions[i+1:]...)
			} else {
				msg.Reactions[i].Count = count
			}
			return
		}
	}
	if count > 0 {
		msg.Reactions = append(msg.Reactions, messenger.Reaction{Emoji: emoji, Count: count})
	}
}

// Sent returns every message posted so far, in order.
func (f *Fake) Sent() []*messenger.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*messenger.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// Reactions returns every AddReaction call so far, in order.
func (f *Fake) Reactions() []ReactionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ReactionCall, len(f.reactions))
	copy(out, f.reactions)
	return out
}

// ResolveChannel implements messenger.Messenger.
func (f *Fake) ResolveChannel(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable[channelID] {
		return messenger.ErrChannelUnavailable
	}
	return nil
}

// SendMessage implements messenger.Messenger.
func (f *Fake) SendMessage(ctx context.Context, channelID, content string) (*messenger.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable[channelID] {
		return nil, messenger.ErrChannelUnavailable
	}
	f.nextID++
	msg := &messenger.Message{
		ID:        "msg-" + strconv.Itoa(f.nextID),
		ChannelID: channelID,
		Content:   content,
	}
	f.messages[msg.ID] = msg
	f.sent = append(f.sent, msg)
	return msg, nil
}

// AddReaction implements messenger.Messenger. The bot's own reaction
// counts toward the tally, mirroring the real platform.
func (f *Fake) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return messenger.ErrMessageNotFound
	}
	for i := range msg.Reactions {
		if msg.Reactions[i].Emoji == emoji {
			msg.Reactions[i].Count++
			f.reactions = append(f.reactions, ReactionCall{channelID, messageID, emoji})
			return nil
		}
	}
	msg.Reactions = append(msg.Reactions, messenger.Reaction{Emoji: emoji, Count: 1})
	f.reactions = append(f.reactions, ReactionCall{channelID, messageID, emoji})
	return nil
}

// FetchMessage implements messenger.Messenger. Returned messages are
// copies; mutating them does not affect the fake's state.
func (f *Fake) FetchMessage(ctx context.Context, channelID, messageID string) (*messenger.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fetchErrs[messageID]; ok {
		return nil, err
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, messenger.ErrMessageNotFound
	}
	cp := *msg
	cp.Reactions = append([]messenger.Reaction(nil), msg.Reactions...)
	return &cp, nil
}

var _ messenger.Messenger = (*Fake)(nil)
