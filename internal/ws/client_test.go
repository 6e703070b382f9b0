package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armazem/internal/domain"
)

// pipeConn scripts the server side of a client: frames pushed into in are
// read by the client's read loop, frames the client writes are recorded.
type pipeConn struct {
	in chan []byte

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func newPipeConn() *pipeConn { return &pipeConn{in: make(chan []byte, 8)} }

func (p *pipeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-p.in
	if !ok {
		return 0, nil, errClosed
	}
	return 1, data, nil
}

func (p *pipeConn) WriteMessage(_ int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.sent = append(p.sent, cp)
	return nil
}

func (p *pipeConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.in)
	}
	return nil
}

func (p *pipeConn) Sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, 0, len(p.sent))
	for _, raw := range p.sent {
		var m Message
		if json.Unmarshal(raw, &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

var errClosed = errors.New("connection closed")

func push(t *testing.T, p *pipeConn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	p.in <- b
}

func TestClientRequestsStateOnOpen(t *testing.T) {
	p := newPipeConn()
	c := newClient("ABC123", p, nil)
	defer c.Close()

	require.NoError(t, c.RequestState())
	require.Equal(t, StateOpen, c.State())

	sent := p.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ActionGetCart, sent[0].Action)
	assert.Equal(t, "ABC123", sent[0].CartID)
}

func TestClientReplacesSnapshotWholesale(t *testing.T) {
	got := make(chan []domain.CartItem, 4)
	p := newPipeConn()
	c := newClient("ABC123", p, func(items []domain.CartItem) { got <- items })
	defer c.Close()

	push(t, p, Update{Action: ActionUpdate, CartID: "ABC123", Products: []domain.CartItem{
		{ID: 1, ProductID: "GA001", Quantity: 3},
		{ID: 2, ProductID: "GA002", Quantity: 1},
	}})
	require.Len(t, <-got, 2)
	assert.Len(t, c.Items(), 2)

	// The next update replaces, never merges.
	push(t, p, Update{Action: ActionUpdate, CartID: "ABC123", Products: []domain.CartItem{
		{ID: 2, ProductID: "GA002", Quantity: 1},
	}})
	require.Len(t, <-got, 1)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "GA002", items[0].ProductID)
}

func TestClientRecordsErrorReplies(t *testing.T) {
	p := newPipeConn()
	c := newClient("ABC123", p, nil)
	defer c.Close()

	push(t, p, ErrorReply{Action: ActionError, CartID: "ABC123", Error: "cart not found"})

	require.Eventually(t, func() bool {
		return c.LastError() == "cart not found"
	}, time.Second, 5*time.Millisecond)
}

func TestClientRefusesMutationsAfterClose(t *testing.T) {
	p := newPipeConn()
	c := newClient("ABC123", p, nil)

	require.NoError(t, c.Close())
	assert.Equal(t, StateClosed, c.State())

	assert.ErrorIs(t, c.AddProduct("GA001", 3, "2025-01-01", "lote1"), ErrNotOpen)
	assert.ErrorIs(t, c.DeleteProduct(1), ErrNotOpen)
	assert.ErrorIs(t, c.Export(), ErrNotOpen)
}

func TestClientErroredWhenTransportDrops(t *testing.T) {
	p := newPipeConn()
	c := newClient("ABC123", p, nil)

	// Server-side drop: the read loop fails without a local Close.
	close(p.in)
	require.Eventually(t, func() bool {
		return c.State() == StateErrored
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, c.RequestState(), ErrNotOpen)
}
