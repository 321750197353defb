package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards every bus event of type T to ch until the
// returned function is called. The playback and log SSE handlers select on ch.
//
// Delivery never blocks the publisher: when ch is full the event is dropped,
// so a slow client misses events instead of stalling the player.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
