package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRelay(t *testing.T, store repositories.IMessageRepository, moderator *moderation.Moderator) *Relay {
	t.Helper()
	return NewRelay(
		logs.GetLoggerFromLevel(slog.LevelDebug),
		newTestRegistry(),
		store,
		moderator,
		observability.NewStats(),
		16,
	)
}

func Test_Join_Announces_To_Everyone_Including_Self(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	relay := newTestRelay(t, mocks.NewMockIMessageRepository(ctrl), nil)

	// When alice joins
	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	req.NotNil(conn)

	// Then a join event is queued for broadcast to all sinks, hers included
	select {
	case e := <-relay.Broadcasts():
		joined, ok := e.(event.UserJoined)
		req.True(ok)
		req.Equal("alice", joined.Username)
	case <-time.After(time.Second):
		t.Fatal("no join event queued")
	}
	req.Equal(1, relay.Registry().Len())
}

func Test_Publish_Persists_Before_Broadcast(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageRepository(ctrl)
	relay := newTestRelay(t, store, nil)

	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	<-relay.Broadcasts() // drain the join event

	// Given a store that acknowledges the write with its key
	store.EXPECT().
		Append(gomock.Any()).
		DoAndReturn(func(m repositories.StoredMessage) (string, error) {
			req.Equal("hello everyone", m.Text)
			req.Equal("alice", m.Author)
			return "msg:0000000000000000001:" + m.ID.String(), nil
		})

	// When publishing
	req.NoError(relay.Publish(context.Background(), conn, "hello everyone"))

	// Then the broadcast event carries the storage key, proving the write
	// completed before the event was queued
	select {
	case e := <-relay.Broadcasts():
		relayed, ok := e.(event.MessageRelayed)
		req.True(ok)
		req.Equal("hello everyone", relayed.Text)
		req.Equal("alice", relayed.Username)
		req.Contains(relayed.StorageKey, relayed.ID.String())
	case <-time.After(time.Second):
		t.Fatal("no message event queued")
	}
}

func Test_Publish_Drops_Message_When_Store_Fails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageRepository(ctrl)
	relay := newTestRelay(t, store, nil)

	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	<-relay.Broadcasts()

	// Given a store that refuses the write
	store.EXPECT().Append(gomock.Any()).Return("", fmt.Errorf("disk full"))

	// When publishing
	err = relay.Publish(context.Background(), conn, "this will vanish")

	// Then the sender sees no error, nothing is broadcast and the
	// connection stays live
	req.NoError(err)
	select {
	case e := <-relay.Broadcasts():
		t.Fatalf("unexpected broadcast: %v", e)
	case <-time.After(50 * time.Millisecond):
	}
	req.Equal(1, relay.Registry().Len())
}

func Test_Publish_Censors_Before_Persisting(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageRepository(ctrl)

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*')
	req.NoError(err)
	relay := newTestRelay(t, store, moderator)

	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	<-relay.Broadcasts()

	// Then the stored text is already masked
	store.EXPECT().
		Append(gomock.Any()).
		DoAndReturn(func(m repositories.StoredMessage) (string, error) {
			req.Equal("you *****", m.Text)
			return "key", nil
		})

	req.NoError(relay.Publish(context.Background(), conn, "you idiot"))

	relayed := (<-relay.Broadcasts()).(event.MessageRelayed)
	req.Equal("you *****", relayed.Text)
}

func Test_Publish_Preserves_Sender_Order(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageRepository(ctrl)
	relay := newTestRelay(t, store, nil)

	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	<-relay.Broadcasts()

	store.EXPECT().Append(gomock.Any()).Return("key", nil).Times(3)

	// When alice sends three messages in a row
	for _, text := range []string{"one", "two", "three"} {
		req.NoError(relay.Publish(context.Background(), conn, text))
	}

	// Then they are queued in send order
	for _, want := range []string{"one", "two", "three"} {
		relayed := (<-relay.Broadcasts()).(event.MessageRelayed)
		req.Equal(want, relayed.Text)
	}
}

func Test_Leave_Announces_Departure_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	relay := newTestRelay(t, mocks.NewMockIMessageRepository(ctrl), nil)

	conn, err := relay.Join(context.Background(), domain.Claims{ID: "u1", Username: "alice"}, &recordingSink{})
	req.NoError(err)
	<-relay.Broadcasts()

	// When leaving twice (read loop and write pump can both observe the close)
	relay.Leave(context.Background(), conn.ID)
	relay.Leave(context.Background(), conn.ID)

	// Then exactly one departure event is queued
	left := (<-relay.Broadcasts()).(event.UserLeft)
	req.Equal("alice", left.Username)

	select {
	case e := <-relay.Broadcasts():
		t.Fatalf("unexpected second event: %v", e)
	case <-time.After(50 * time.Millisecond):
	}
	req.Zero(relay.Registry().Len())
}
