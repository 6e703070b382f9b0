package domain

type Product struct {
	ID             string `db:"id_product" json:"id"`
	Name           string `db:"name" json:"name"`
	NormalizedName string `db:"normalized_name" json:"-"`
	Unit           string `db:"unit" json:"unit"`
	PosX           int    `db:"pos_x" json:"position_x"`
	PosY           int    `db:"pos_y" json:"position_y"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}

type Donor struct {
	ID             string `db:"id_donor" json:"id"`
	Name           string `db:"name" json:"name"`
	NormalizedName string `db:"normalized_name" json:"-"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}

// Cart types as the frontend sends them.
const (
	CartIncoming = "Entrada"
	CartOutgoing = "Saída"
)

// Cart is a tracked batch of incoming or outgoing stock. DateExport stays the
// literal "0" until the cart is exported.
type Cart struct {
	ID         string     `db:"id_car" json:"id_car"`
	Type       string     `db:"type" json:"type"`
	DateExport string     `db:"date_export" json:"date_export"`
	Items      []CartItem `json:"products"`
}

// CartItem is one inventory batch inside a cart. Items with the same product
// but different expirations are distinct batches and are never merged.
type CartItem struct {
	ID          int     `db:"id" json:"id"`
	CartID      string  `db:"id_car" json:"id_car"`
	ProductID   string  `db:"id_product" json:"id_product"`
	Name        string  `db:"name" json:"name"`
	Unit        string  `db:"unit" json:"unit"`
	PosX        int     `db:"pos_x" json:"pos_x"`
	PosY        int     `db:"pos_y" json:"pos_y"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	Expiration  string  `db:"expiration" json:"expiration"`
	Description string  `db:"description" json:"description"`
}
