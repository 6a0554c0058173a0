package player

import (
	"sync"
	"time"
)

// HeartbeatInterval is how often a playing viewer reports progress. View
// increments happen once on page load and once per interval while playing.
const HeartbeatInterval = 5 * time.Second

// PlaybackEvents is the capability surface a provider player wrapper must
// expose. Both provider iframes reduce to these three callbacks.
type PlaybackEvents interface {
	OnPlay()
	OnPause()
	OnEnded()
}

// Heartbeat turns playback events into periodic fire callbacks. It drives
// the view-progress reporting loop: ticking only while playing, silent
// across pause/resume cycles.
type Heartbeat struct {
	interval time.Duration
	fire     func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewHeartbeat(interval time.Duration, fire func()) *Heartbeat {
	if interval <= 0 {
		interval = HeartbeatInterval
	}
	return &Heartbeat{interval: interval, fire: fire}
}

// OnPlay starts the tick loop. Calling it while already playing is a no-op.
func (h *Heartbeat) OnPlay() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	h.stop, h.done = stop, done

	go func() {
		defer close(done)
		t := time.NewTicker(h.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				h.fire()
			case <-stop:
				return
			}
		}
	}()
}

// OnPause halts ticking and waits for the loop to exit, so no fire can
// arrive after it returns.
func (h *Heartbeat) OnPause() {
	h.mu.Lock()
	stop, done := h.stop, h.done
	h.stop, h.done = nil, nil
	h.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// OnEnded is equivalent to OnPause; the ended state carries no extra
// server-side meaning.
func (h *Heartbeat) OnEnded() { h.OnPause() }

// Stop releases the loop regardless of state.
func (h *Heartbeat) Stop() { h.OnPause() }

var _ PlaybackEvents = (*Heartbeat)(nil)
