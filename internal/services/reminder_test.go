package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
	"github.com/tbourn/go-request-bot/internal/messenger"
	"github.com/tbourn/go-request-bot/internal/messenger/messengertest"
)

func TestReminder_Broadcast_MentionsAllGroups(t *testing.T) {
	fake := messengertest.New()
	roles := domain.NewRoleTable(map[string]string{
		"carti": "100",
		"lucki": "200",
	}, "999")
	rem := NewReminder(fake, requestChannel, roles, zerolog.Nop())

	if err := rem.Broadcast(context.Background()); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	sent := fake.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	content := sent[0].Content
	if !strings.HasPrefix(content, "Vote reminder!") {
		t.Fatalf("unexpected reminder text: %s", content)
	}
	for _, mention := range []string{"<@&100>", "<@&200>", "<@&999>"} {
		if !strings.Contains(content, mention) {
			t.Fatalf("reminder missing %s: %s", mention, content)
		}
	}
}

func TestReminder_Broadcast_ChannelUnavailable(t *testing.T) {
	fake := messengertest.New()
	fake.MarkChannelUnavailable(requestChannel)
	rem := NewReminder(fake, requestChannel, domain.NewRoleTable(nil, "999"), zerolog.Nop())

	err := rem.Broadcast(context.Background())
	if !errors.Is(err, messenger.ErrChannelUnavailable) {
		t.Fatalf("err = %v, want ErrChannelUnavailable", err)
	}
	if len(fake.Sent()) != 0 {
		t.Fatal("nothing may be sent when the channel is unavailable")
	}
}
