package ws

import (
	"sync"

	fastws "github.com/fasthttp/websocket"
)

// Conn is the write side of one subscriber channel. *websocket.Conn
// satisfies it; tests plug in fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// serialConn serializes writes to one underlying connection. The websocket
// allows a single writer at a time, but broadcasts run outside the registry
// lock and error replies come straight out of dispatch, so two goroutines can
// reach the same socket.
type serialConn struct {
	mu sync.Mutex
	c  Conn
}

func (s *serialConn) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.WriteMessage(messageType, data)
}

func (s *serialConn) Close() error { return s.c.Close() }

// Registry tracks which connections are subscribed to which cart. Entries
// appear on first subscriber and disappear when the set empties, so the map
// never accumulates dead cart ids.
type Registry struct {
	mu   sync.Mutex
	subs map[string]map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[Conn]struct{})}
}

// Subscribe registers c for the cart and returns the Conn every later write
// must go through: a wrapper holding the connection's write lock. Callers use
// the returned Conn for direct replies and for Unsubscribe.
func (r *Registry) Subscribe(cartID string, c Conn) Conn {
	sub := &serialConn{c: c}
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.subs[cartID]
	if set == nil {
		set = make(map[Conn]struct{})
		r.subs[cartID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (r *Registry) Unsubscribe(cartID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(cartID, c)
}

// drop must be called with r.mu held.
func (r *Registry) drop(cartID string, c Conn) {
	set, ok := r.subs[cartID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.subs, cartID)
	}
}

func (r *Registry) Count(cartID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[cartID])
}

// Broadcast sends data to every subscriber of the cart. A connection whose
// send fails is closed and removed; the remaining subscribers still get the
// frame. One bad socket never aborts the fan-out.
func (r *Registry) Broadcast(cartID string, data []byte) {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.subs[cartID]))
	for c := range r.subs[cartID] {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	var failed []Conn
	for _, c := range conns {
		if err := c.WriteMessage(fastws.TextMessage, data); err != nil {
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		return
	}
	r.mu.Lock()
	for _, c := range failed {
		r.drop(cartID, c)
	}
	r.mu.Unlock()
	for _, c := range failed {
		_ = c.Close()
	}
}

// CloseAll tears down every subscription for a cart. Used when the cart
// itself is deleted; no further broadcasts will follow.
func (r *Registry) CloseAll(cartID string) {
	r.mu.Lock()
	set := r.subs[cartID]
	delete(r.subs, cartID)
	r.mu.Unlock()
	for c := range set {
		_ = c.Close()
	}
}
