package ws

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	fastws "github.com/fasthttp/websocket"

	"armazem/internal/domain"
)

// ClientState follows the channel lifecycle: Connecting → Open → Closed or
// Errored. There is no resume; a torn-down client is done and a fresh one is
// dialed on the next mount.
type ClientState int32

const (
	StateConnecting ClientState = iota
	StateOpen
	StateClosed
	StateErrored
)

var ErrNotOpen = errors.New("cart channel is not open")

// clientConn is what the client needs from the underlying socket; the
// fasthttp dialer's *Conn provides it.
type clientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live view over a cart. It renders whatever the server last
// broadcast: every UpdateCar replaces the snapshot wholesale, no merging.
// Mutating calls are refused unless the channel is Open.
type Client struct {
	cartID string
	conn   clientConn
	state  atomic.Int32

	mu      sync.Mutex
	items   []domain.CartItem
	lastErr string

	onUpdate func([]domain.CartItem)
	done     chan struct{}
}

// DialCart opens a channel for one cart and immediately requests the current
// state, so the snapshot converges without any client-side bookkeeping.
// baseURL is e.g. "ws://localhost:8080".
func DialCart(baseURL, cartID string, onUpdate func([]domain.CartItem)) (*Client, error) {
	conn, _, err := fastws.DefaultDialer.Dial(baseURL+"/ws?id_car="+url.QueryEscape(cartID), nil)
	if err != nil {
		return nil, err
	}
	c := newClient(cartID, conn, onUpdate)
	if err := c.RequestState(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func newClient(cartID string, conn clientConn, onUpdate func([]domain.CartItem)) *Client {
	c := &Client{cartID: cartID, conn: conn, onUpdate: onUpdate, done: make(chan struct{})}
	c.state.Store(int32(StateOpen))
	go c.readLoop()
	return c
}

func (c *Client) State() ClientState { return ClientState(c.state.Load()) }

// Items returns the last broadcast snapshot.
func (c *Client) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// LastError reports the most recent Error frame addressed to this client.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) RequestState() error {
	return c.send(Message{Action: ActionGetCart, CartID: c.cartID})
}

// AddProduct appends a new batch; the server assigns the persistent id.
func (c *Client) AddProduct(productID string, qty float64, expiration, description string) error {
	return c.send(Message{
		Action: ActionAddProduct, CartID: c.cartID,
		ProductID: productID, Quantity: qty, Expiration: expiration, Description: description,
	})
}

func (c *Client) EditProduct(itemID int, qty float64, expiration, description string) error {
	return c.send(Message{
		Action: ActionEditProduct, CartID: c.cartID,
		ID: itemID, Quantity: qty, Expiration: expiration, Description: description,
	})
}

func (c *Client) DeleteProduct(itemID int) error {
	return c.send(Message{Action: ActionDeleteProduct, CartID: c.cartID, ID: itemID})
}

func (c *Client) DeleteCart() error {
	return c.send(Message{Action: ActionDeleteCart, CartID: c.cartID})
}

func (c *Client) Export() error {
	return c.send(Message{Action: ActionExport, CartID: c.cartID})
}

// Close tears the channel down so the server drops the subscription. Safe to
// call more than once.
func (c *Client) Close() error {
	c.state.CompareAndSwap(int32(StateOpen), int32(StateClosed))
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) send(msg Message) error {
	if c.State() != StateOpen {
		return ErrNotOpen
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(fastws.TextMessage, payload)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// A deliberate Close lands here too; keep Closed in that case.
			c.state.CompareAndSwap(int32(StateOpen), int32(StateErrored))
			return
		}
		var upd Update
		if err := json.Unmarshal(data, &upd); err != nil {
			continue
		}
		switch upd.Action {
		case ActionUpdate:
			c.mu.Lock()
			c.items = upd.Products
			c.mu.Unlock()
			if c.onUpdate != nil {
				c.onUpdate(upd.Products)
			}
		case ActionError:
			var rep ErrorReply
			if json.Unmarshal(data, &rep) == nil {
				c.mu.Lock()
				c.lastErr = rep.Error
				c.mu.Unlock()
			}
		}
	}
}
