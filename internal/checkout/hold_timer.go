package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HoldTimer is the countdown shown while a slot is held for payment.
// Expiry only changes what is displayed; it cancels nothing.
type HoldTimer struct {
	total time.Duration
	tick  time.Duration

	mu        sync.Mutex
	remaining time.Duration
	expired   bool
	gen       int
	stop      context.CancelFunc
}

func NewHoldTimer(total time.Duration) *HoldTimer {
	return &HoldTimer{total: total, tick: time.Second}
}

// Start resets the countdown and decrements it by one second per tick, calling onTick each time.
func (h *HoldTimer) Start(ctx context.Context, onTick func(remaining time.Duration)) {
	h.Stop()

	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.remaining = h.total
	h.expired = false
	h.gen++
	gen := h.gen
	h.stop = cancel
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.mu.Lock()
				if h.gen != gen {
					h.mu.Unlock()
					return
				}
				if h.remaining > 0 {
					h.remaining -= time.Second
				}
				remaining := h.remaining
				h.expired = remaining <= 0
				h.mu.Unlock()

				if onTick != nil {
					onTick(remaining)
				}
				if remaining <= 0 {
					return
				}
			}
		}
	}()
}

// Stop halts the countdown and clears it.
func (h *HoldTimer) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
	h.gen++
	h.remaining = 0
	h.expired = false
}

// Expired reports whether a running countdown has reached zero.
func (h *HoldTimer) Expired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.expired
}

func (h *HoldTimer) Remaining() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remaining
}

// Label renders the remaining time as m:ss.
func (h *HoldTimer) Label() string {
	return FormatHold(h.Remaining())
}

func FormatHold(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
