package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/player"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of playback lifecycle events. The current player status is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"status":               player.Info{},
		"playback-started":     events.PlaybackStartedEvent{},
		"playback-command":     events.PlaybackCommandEvent{},
		"playback-finished":    events.PlaybackFinishedEvent{},
		"playback-closed":      events.PlaybackClosedEvent{},
		"player-state-changed": events.PlayerStateChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.PlaybackStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlaybackCommandEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlaybackFinishedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlaybackClosedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlayerStateChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(s.player.Status()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
