package ws

import (
	"encoding/json"
	"errors"
	"sync"

	fastws "github.com/fasthttp/websocket"

	applog "armazem/internal/log"
	"armazem/internal/services"
)

// Coordinator is the single mutator of cart state reachable from the cart
// channels. Every action for a cart runs under that cart's lock, so
// concurrent mutations from different connections serialize, and each
// subscriber sees broadcasts in exactly the order the mutations applied.
// Different carts proceed in parallel.
type Coordinator struct {
	carts *services.CartService
	reg   *Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(carts *services.CartService, reg *Registry) *Coordinator {
	return &Coordinator{carts: carts, reg: reg, locks: make(map[string]*sync.Mutex)}
}

func (co *Coordinator) lockFor(cartID string) *sync.Mutex {
	co.mu.Lock()
	defer co.mu.Unlock()
	l := co.locks[cartID]
	if l == nil {
		l = &sync.Mutex{}
		co.locks[cartID] = l
	}
	return l
}

func (co *Coordinator) dropLock(cartID string) {
	co.mu.Lock()
	delete(co.locks, cartID)
	co.mu.Unlock()
}

// Dispatch applies one inbound frame from origin. Protocol and validation
// failures answer origin alone and never reach the other subscribers.
func (co *Coordinator) Dispatch(channelCartID string, raw []byte, origin Conn) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		co.replyError(origin, channelCartID, "malformed message")
		return
	}
	cartID := msg.CartID
	if cartID == "" {
		cartID = channelCartID
	}

	l := co.lockFor(cartID)
	l.Lock()
	defer l.Unlock()

	switch msg.Action {
	case ActionGetCart:
		co.broadcastState(cartID, origin)

	case ActionAddProduct:
		var err error
		if msg.ID == 0 {
			_, err = co.carts.AddItem(cartID, msg.ProductID, msg.Quantity, msg.Expiration, msg.Description)
		} else {
			err = co.carts.EditItem(msg.ID, msg.Quantity, msg.Expiration, msg.Description)
		}
		if err != nil {
			co.replyActionError(origin, cartID, err)
			return
		}
		co.broadcastState(cartID, origin)

	case ActionEditProduct:
		if err := co.carts.EditItem(msg.ID, msg.Quantity, msg.Expiration, msg.Description); err != nil {
			co.replyActionError(origin, cartID, err)
			return
		}
		co.broadcastState(cartID, origin)

	case ActionDeleteProduct:
		if err := co.carts.DeleteItem(msg.ID); err != nil {
			co.replyActionError(origin, cartID, err)
			return
		}
		co.broadcastState(cartID, origin)

	case ActionDeleteCart:
		if err := co.carts.Delete(cartID); err != nil {
			co.replyActionError(origin, cartID, err)
			return
		}
		// Terminal for the cart: close every channel still attached to it.
		co.reg.CloseAll(cartID)
		co.dropLock(cartID)

	case ActionExport:
		if err := co.carts.Export(cartID); err != nil {
			co.replyActionError(origin, cartID, err)
			return
		}
		co.broadcastState(cartID, origin)

	default:
		co.replyError(origin, cartID, "unknown action")
	}
}

// broadcastState pushes the full current line-item list to every subscriber.
// A cart that vanished (raced with DeleteCar) answers origin alone.
func (co *Coordinator) broadcastState(cartID string, origin Conn) {
	cart, err := co.carts.Get(cartID)
	if err != nil {
		co.replyActionError(origin, cartID, err)
		return
	}
	payload, err := json.Marshal(Update{Action: ActionUpdate, CartID: cartID, Products: cart.Items})
	if err != nil {
		applog.CartError(cartID, "ws.broadcast.encode", err)
		return
	}
	co.reg.Broadcast(cartID, payload)
}

func (co *Coordinator) replyActionError(origin Conn, cartID string, err error) {
	switch {
	case errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrUnknownProduct),
		errors.Is(err, services.ErrBadQuantity):
		co.replyError(origin, cartID, err.Error())
	default:
		applog.CartError(cartID, "ws.action", err)
		co.replyError(origin, cartID, "internal error")
	}
}

func (co *Coordinator) replyError(origin Conn, cartID, msg string) {
	if origin == nil {
		return
	}
	payload, err := json.Marshal(ErrorReply{Action: ActionError, CartID: cartID, Error: msg})
	if err != nil {
		return
	}
	_ = origin.WriteMessage(fastws.TextMessage, payload)
}
