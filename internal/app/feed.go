package app

import (
	"sync"

	"kana-quiz-service/internal/domain"
)

// Feed fans finished-session notices out to observers.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ResultNotice]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.ResultNotice]struct{})}
}

// Subscribe returns a channel of notices. The caller must invoke the
// returned cancel function to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.ResultNotice, func()) {
	ch := make(chan domain.ResultNotice, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers n to every subscriber without blocking. A full
// subscriber loses its oldest pending notice.
func (f *Feed) Publish(n domain.ResultNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- n:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- n
		}
	}
}
