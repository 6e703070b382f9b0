package ws

import (
	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
)

// Upgrade gates /ws: plain HTTP requests and requests without a cart id are
// rejected before the protocol switch.
func Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if c.Query("id_car") == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id_car is required"})
	}
	return c.Next()
}

// CartChannel runs one subscriber connection: register, pump inbound frames
// into the coordinator, unregister on close. The read loop ending for any
// reason (client close, network error) only removes the subscription; it
// never touches the cart store.
func CartChannel(co *Coordinator) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		cartID := conn.Query("id_car")
		sub := co.reg.Subscribe(cartID, conn)
		defer co.reg.Unsubscribe(cartID, sub)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if fastws.IsUnexpectedCloseError(err, fastws.CloseNormalClosure, fastws.CloseGoingAway) {
					applog.CartInfo(cartID, "ws.read.closed", map[string]any{"err": err.Error()})
				}
				return
			}
			co.Dispatch(cartID, msg, sub)
		}
	})
}
