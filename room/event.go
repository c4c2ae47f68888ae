package room

import "sync"

type EventKind string

const (
	Joined EventKind = "joined"
	Left   EventKind = "left"
)

// Event carries the intent of a membership change, not the resulting state.
type Event struct {
	Kind   EventKind `json:"kind"`
	Handle Handle    `json:"handle"`
	Room   string    `json:"room"`
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Feed is a subscription registry. Listeners are called synchronously in
// subscription order.
type Feed[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

// Subscribe registers fn and returns the function that removes it.
func (f *Feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	subs := make([]subscriber[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
