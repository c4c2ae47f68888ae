package main

import (
	"slices"
	"sync"
)

// Observers are spectators of the broadcast stream. They hold no handle and
// cannot issue requests.
type Observers struct {
	receivers []chan []byte
	closed    bool
	lock      sync.Mutex
}

func NewObservers() *Observers {
	return &Observers{receivers: make([]chan []byte, 0)}
}

func (o *Observers) Join(newChan chan []byte) bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.closed {
		return false
	}
	o.receivers = append(o.receivers, newChan)
	return true
}

func (o *Observers) Leave(channel chan []byte) {
	o.lock.Lock()
	defer o.lock.Unlock()
	for i, receiver := range o.receivers {
		if receiver == channel {
			o.receivers = slices.Delete(o.receivers, i, i+1)
			break
		}
	}
}

// Broadcast skips observers whose buffer is full.
func (o *Observers) Broadcast(message []byte) {
	o.lock.Lock()
	defer o.lock.Unlock()
	for _, receiver := range o.receivers {
		select {
		case receiver <- message:
		default:
		}
	}
}

func (o *Observers) Count() int {
	o.lock.Lock()
	defer o.lock.Unlock()
	return len(o.receivers)
}

func (o *Observers) CloseReceivers() {
	o.lock.Lock()
	defer o.lock.Unlock()
	for _, receiver := range o.receivers {
		close(receiver)
	}
	o.receivers = nil
	o.closed = true
}
