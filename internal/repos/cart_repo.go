package repos

import (
	"database/sql"
	"errors"
	"math/rand"

	"github.com/jmoiron/sqlx"

	"armazem/internal/domain"
)

const cartIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func newCartID() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = cartIDCharset[rand.Intn(len(cartIDCharset))]
	}
	return string(code)
}

// Create inserts a cart under a fresh random code, retrying on the rare
// collision with an existing code.
func (r *CartRepo) Create(cartType string) (domain.Cart, error) {
	var cart domain.Cart
	for {
		id := newCartID()
		_, err := r.db.Exec(`INSERT INTO cars(id_car, type) VALUES(?,?)`, id, cartType)
		if err != nil {
			var exists int
			if gerr := r.db.Get(&exists, `SELECT COUNT(*) FROM cars WHERE id_car=?`, id); gerr == nil && exists > 0 {
				continue
			}
			return cart, err
		}
		cart.ID = id
		break
	}
	err := r.db.Get(&cart.DateExport, `SELECT date_export FROM cars WHERE id_car=?`, cart.ID)
	cart.Type = cartType
	cart.Items = []domain.CartItem{}
	return cart, err
}

// Get returns the cart with its items enriched with catalog data.
func (r *CartRepo) Get(id string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.db.Get(&cart, `SELECT id_car, type, date_export FROM cars WHERE id_car = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return cart, ErrNotFound
	}
	if err != nil {
		return cart, err
	}
	cart.Items, err = r.Items(id)
	return cart, err
}

func (r *CartRepo) Items(cartID string) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	err := r.db.Select(&items, `
	  SELECT pc.id, pc.id_car, pc.id_product, p.name, p.unit, p.pos_x, p.pos_y,
	         pc.quantity, pc.expiration, pc.description
	  FROM products_car pc JOIN products p ON p.id_product = pc.id_product
	  WHERE pc.id_car = ?
	  ORDER BY pc.id
	`, cartID)
	return items, err
}

func (r *CartRepo) All() ([]domain.Cart, error) {
	carts := []domain.Cart{}
	if err := r.db.Select(&carts, `SELECT id_car, type, date_export FROM cars ORDER BY created_at`); err != nil {
		return nil, err
	}
	for i := range carts {
		items, err := r.Items(carts[i].ID)
		if err != nil {
			return nil, err
		}
		carts[i].Items = items
	}
	return carts, nil
}

func (r *CartRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM cars WHERE id_car = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// Belt and braces for DBs opened without foreign_keys=ON
	_, err = r.db.Exec(`DELETE FROM products_car WHERE id_car NOT IN (SELECT id_car FROM cars)`)
	return err
}

// SetExported stamps the cart with the current time.
func (r *CartRepo) SetExported(id string) error {
	res, err := r.db.Exec(`UPDATE cars SET date_export = CURRENT_TIMESTAMP WHERE id_car = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddItem appends a line item and returns the assigned id.
func (r *CartRepo) AddItem(cartID, productID string, qty float64, expiration, description string) (int, error) {
	res, err := r.db.Exec(`
	  INSERT INTO products_car(id_car, id_product, quantity, expiration, description)
	  VALUES(?,?,?,?,?)
	`, cartID, productID, qty, expiration, description)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (r *CartRepo) EditItem(id int, qty float64, expiration, description string) error {
	res, err := r.db.Exec(`
	  UPDATE products_car SET quantity=?, expiration=?, description=? WHERE id=?
	`, qty, expiration, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes a line item; deleting an absent id is a no-op.
func (r *CartRepo) DeleteItem(id int) error {
	_, err := r.db.Exec(`DELETE FROM products_car WHERE id = ?`, id)
	return err
}

// DeleteExportedStale removes carts exported more than seven days ago.
func (r *CartRepo) DeleteExportedStale() error {
	_, err := r.db.Exec(`
	  DELETE FROM cars
	  WHERE date_export != '0' AND DATE(date_export) < DATE('now','-7 days')
	`)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`DELETE FROM products_car WHERE id_car NOT IN (SELECT id_car FROM cars)`)
	return err
}
