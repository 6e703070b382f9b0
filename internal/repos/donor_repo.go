package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"armazem/internal/domain"
	"armazem/internal/validate"
)

type DonorRepo struct{ db *sqlx.DB }

func NewDonorRepo(db *sqlx.DB) *DonorRepo { return &DonorRepo{db: db} }

func (r *DonorRepo) All() ([]domain.Donor, error) {
	out := []domain.Donor{}
	err := r.db.Select(&out, `
	  SELECT id_donor, name, normalized_name, COALESCE(created_at,'') AS created_at
	  FROM donors ORDER BY normalized_name
	`)
	return out, err
}

func (r *DonorRepo) Get(id string) (domain.Donor, error) {
	var d domain.Donor
	err := r.db.Get(&d, `
	  SELECT id_donor, name, normalized_name, COALESCE(created_at,'') AS created_at
	  FROM donors WHERE id_donor = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, err
}

func (r *DonorRepo) Create(id, name string) error {
	_, err := r.db.Exec(`
	  INSERT INTO donors(id_donor, name, normalized_name) VALUES(?,?,?)
	`, id, name, validate.Normalize(name))
	return err
}

func (r *DonorRepo) Update(id, name string) error {
	res, err := r.db.Exec(`
	  UPDATE donors SET name=?, normalized_name=? WHERE id_donor=?
	`, name, validate.Normalize(name), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DonorRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM donors WHERE id_donor = ?`, id)
	return err
}

func (r *DonorRepo) SearchByID(fragment string) ([]domain.Donor, error) {
	out := []domain.Donor{}
	err := r.db.Select(&out, `
	  SELECT id_donor, name, normalized_name, COALESCE(created_at,'') AS created_at
	  FROM donors WHERE id_donor LIKE ?
	`, "%"+fragment+"%")
	return out, err
}

func (r *DonorRepo) SearchByName(fragment string) ([]domain.Donor, error) {
	out := []domain.Donor{}
	err := r.db.Select(&out, `
	  SELECT id_donor, name, normalized_name, COALESCE(created_at,'') AS created_at
	  FROM donors WHERE normalized_name LIKE ?
	`, "%"+validate.Normalize(fragment)+"%")
	return out, err
}
