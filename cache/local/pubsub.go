package local

import (
	"context"
	"sync"
)

// PubSubMessage is a message delivered to local subscribers.
type PubSubMessage struct {
	Channel string
	Payload string
}

type subscriber struct {
	ch       chan *PubSubMessage
	channels map[string]bool
}

// PubSub is an in-process publish/subscribe bus. Slow subscribers drop
// messages rather than block publishers.
type PubSub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]bool
	bufSize int
}

// NewPubSub creates a PubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *PubSub {
	return &PubSub{
		subs:    make(map[*subscriber]bool),
		bufSize: bufSize,
	}
}

// Publish delivers message to every subscriber of channel.
func (p *PubSub) Publish(_ context.Context, channel, message string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for sub := range p.subs {
		if !sub.channels[channel] {
			continue
		}
		select {
		case sub.ch <- &PubSubMessage{Channel: channel, Payload: message}:
		default:
		}
	}
	return nil
}

// Subscribe registers for the given channels. The returned cancel func
// unregisters and closes the message channel.
func (p *PubSub) Subscribe(_ context.Context, channels ...string) (<-chan *PubSubMessage, func(), error) {
	sub := &subscriber{
		ch:       make(chan *PubSubMessage, p.bufSize),
		channels: make(map[string]bool, len(channels)),
	}
	for _, ch := range channels {
		sub.channels[ch] = true
	}

	p.mu.Lock()
	p.subs[sub] = true
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, sub)
			p.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}
