package workers

import (
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Fanout_Delivers_To_Registry_And_Permanent_Sinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	broadcasts := make(chan event.DomainEvent, 1)
	registry := mocks.NewMockIRegistry(ctrl)
	permanent := mocks.NewMockEventSink(ctrl)

	relayed := event.MessageRelayed{Username: "alice", Text: "hello"}
	delivered := make(chan struct{})

	// Then the event reaches the live connections and the permanent sink
	registry.EXPECT().Broadcast(gomock.Any(), relayed, "").Return(2)
	registry.EXPECT().Len().Return(2)
	permanent.EXPECT().
		Consume(gomock.Any(), relayed).
		DoAndReturn(func(context.Context, event.DomainEvent) error {
			close(delivered)
			return nil
		})

	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), broadcasts, registry, time.Second, permanent)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	// When an event is published
	broadcasts <- relayed

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event never reached the permanent sink")
	}
	req.NotNil(fanout)
}

func Test_Fanout_Survives_Permanent_Sink_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	broadcasts := make(chan event.DomainEvent, 2)
	registry := mocks.NewMockIRegistry(ctrl)
	permanent := mocks.NewMockEventSink(ctrl)

	first := event.UserJoined{Username: "alice"}
	second := event.UserJoined{Username: "bob"}
	secondSeen := make(chan struct{})

	registry.EXPECT().Broadcast(gomock.Any(), gomock.Any(), "").Return(1).Times(2)
	registry.EXPECT().Len().Return(1).Times(2)

	// Given a permanent sink that fails on the first event
	permanent.EXPECT().Consume(gomock.Any(), first).Return(fmt.Errorf("index offline"))
	permanent.EXPECT().
		Consume(gomock.Any(), second).
		DoAndReturn(func(context.Context, event.DomainEvent) error {
			close(secondSeen)
			return nil
		})

	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), broadcasts, registry, time.Second, permanent)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	broadcasts <- first
	broadcasts <- second

	// Then the second event is still processed
	select {
	case <-secondSeen:
	case <-time.After(time.Second):
		t.Fatal("fanout stopped after a sink failure")
	}
	req.NotNil(fanout)
}

func Test_Fanout_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	broadcasts := make(chan event.DomainEvent)
	registry := mocks.NewMockIRegistry(ctrl)

	fanout := NewEventFanout(logs.GetLoggerFromLevel(slog.LevelDebug), broadcasts, registry, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- fanout.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("fanout did not stop")
	}
}
