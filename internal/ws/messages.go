package ws

import "armazem/internal/domain"

// Action tags on the cart channel. Names are part of the wire contract with
// the frontend and must not change.
const (
	ActionGetCart       = "GetCar"
	ActionAddProduct    = "AddProductCar"
	ActionEditProduct   = "EditProductCar"
	ActionDeleteProduct = "DeleteProductCar"
	ActionDeleteCart    = "DeleteCar"
	ActionExport        = "Export"
	ActionUpdate        = "UpdateCar"
	ActionError         = "Error"
)

// Message is every client-issued frame. Unused fields stay zero; an item id
// of 0 on AddProductCar means "not persisted yet, insert it".
type Message struct {
	Action      string  `json:"action"`
	CartID      string  `json:"id_car"`
	ID          int     `json:"id"`
	ProductID   string  `json:"id_product"`
	Quantity    float64 `json:"quantity"`
	Expiration  string  `json:"expiration"`
	Description string  `json:"description"`
}

// Update is the authoritative state push. Clients replace their view with
// Products wholesale.
type Update struct {
	Action   string            `json:"action"`
	CartID   string            `json:"id_car"`
	Products []domain.CartItem `json:"products"`
}

// ErrorReply goes to the offending connection only, never broadcast.
type ErrorReply struct {
	Action string `json:"action"`
	CartID string `json:"id_car"`
	Error  string `json:"error"`
}
