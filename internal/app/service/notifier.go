package service

import "sync"

const subscriberBuffer = 16

// notifier fans change notifications out to subscribers. A full subscriber
// channel drops the notification rather than blocking the publisher.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan string
}

func (n *notifier) subscribe() (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]chan string)
	}
	id := n.next
	n.next++
	ch := make(chan string, subscriberBuffer)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
}

func (n *notifier) publish(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- id:
		default:
		}
	}
}
