package broadcast

import (
	"sync"

	"github.com/pscheid92/sportz/internal/domain"
)

// Registry is the bidirectional topic/connection index. Every mutation updates
// both directions under one lock, so a topic lists a connection exactly when
// that connection lists the topic.
type Registry struct {
	mu     sync.Mutex
	topics map[domain.TopicID]map[*Conn]struct{}
	pairs  int
}

func NewRegistry() *Registry {
	return &Registry{topics: make(map[domain.TopicID]map[*Conn]struct{})}
}

// Subscribe is idempotent. It is a no-op once the connection has been torn down.
func (r *Registry) Subscribe(topic domain.TopicID, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.detached {
		return
	}
	if _, ok := c.subscriptions[topic]; ok {
		return
	}

	subs, ok := r.topics[topic]
	if !ok {
		subs = make(map[*Conn]struct{})
		r.topics[topic] = subs
	}
	subs[c] = struct{}{}
	c.subscriptions[topic] = struct{}{}
	r.pairs++
}

// Unsubscribe is idempotent and drops topics left without subscribers.
func (r *Registry) Unsubscribe(topic domain.TopicID, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unsubscribeLocked(topic, c)
}

// Teardown removes c from every topic and blocks further subscriptions.
func (r *Registry) Teardown(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.detached = true
	for topic := range c.subscriptions {
		r.unsubscribeLocked(topic, c)
	}
}

func (r *Registry) unsubscribeLocked(topic domain.TopicID, c *Conn) {
	if _, ok := c.subscriptions[topic]; !ok {
		return
	}
	delete(c.subscriptions, topic)

	subs := r.topics[topic]
	delete(subs, c)
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
	r.pairs--
}

// SubscribersOf returns a snapshot of the topic's subscribers.
func (r *Registry) SubscribersOf(topic domain.TopicID) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.topics[topic]
	out := make([]*Conn, 0, len(subs))
	for c := range subs {
		out = append(out, c)
	}
	return out
}

// Stats returns the number of live topics and (topic, connection) pairs.
func (r *Registry) Stats() (topics, pairs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics), r.pairs
}
