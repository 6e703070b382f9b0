package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"armazem/internal/domain"
	"armazem/internal/validate"
)

var ErrNotFound = errors.New("not found")

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) All() ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT id_product, name, normalized_name, unit, pos_x, pos_y,
	         COALESCE(created_at,'') AS created_at
	  FROM products ORDER BY normalized_name
	`)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id_product, name, normalized_name, unit, pos_x, pos_y,
	         COALESCE(created_at,'') AS created_at
	  FROM products WHERE id_product = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) Create(id, name, unit string) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id_product, name, normalized_name, unit)
	  VALUES(?,?,?,?)
	`, id, name, validate.Normalize(name), unit)
	return err
}

func (r *ProductRepo) Update(id, name, unit string, posX, posY int) error {
	res, err := r.db.Exec(`
	  UPDATE products SET name=?, normalized_name=?, unit=?, pos_x=?, pos_y=?
	  WHERE id_product=?
	`, name, validate.Normalize(name), unit, posX, posY, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id_product = ?`, id)
	return err
}

// SearchByID matches products whose id contains the fragment.
func (r *ProductRepo) SearchByID(fragment string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT id_product, name, normalized_name, unit, pos_x, pos_y,
	         COALESCE(created_at,'') AS created_at
	  FROM products WHERE id_product LIKE ?
	`, "%"+fragment+"%")
	return out, err
}

// SearchByName matches against the accent-folded name.
func (r *ProductRepo) SearchByName(fragment string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT id_product, name, normalized_name, unit, pos_x, pos_y,
	         COALESCE(created_at,'') AS created_at
	  FROM products WHERE normalized_name LIKE ?
	`, "%"+validate.Normalize(fragment)+"%")
	return out, err
}
