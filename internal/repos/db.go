package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed a baseline catalog if the DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Product catalog
CREATE TABLE IF NOT EXISTS products(
  id_product TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT '',
  pos_x INTEGER NOT NULL DEFAULT 0,
  pos_y INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_normalized ON products(normalized_name);

-- Donors
CREATE TABLE IF NOT EXISTS donors(
  id_donor TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_donors_normalized ON donors(normalized_name);

-- Carts (stock movements); date_export is '0' until exported
CREATE TABLE IF NOT EXISTS cars(
  id_car TEXT PRIMARY KEY,
  type TEXT NOT NULL CHECK (type IN ('Entrada','Saída')),
  date_export TEXT NOT NULL DEFAULT '0',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Line items; one row per inventory batch
CREATE TABLE IF NOT EXISTS products_car(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  id_car TEXT NOT NULL REFERENCES cars(id_car) ON DELETE CASCADE,
  id_product TEXT NOT NULL REFERENCES products(id_product) ON DELETE RESTRICT,
  quantity REAL NOT NULL CHECK (quantity >= 1),
  expiration TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_car_car ON products_car(id_car);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/donors")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id_product,name,normalized_name,unit,pos_x,pos_y) VALUES
	  ('GA001','Feijão Preto','feijao preto','kg',120,80),
	  ('GA002','Arroz Agulha','arroz agulha','kg',140,80),
	  ('HB001','Fraldas T3','fraldas t3','un',60,210)`)

	tx.MustExec(`INSERT INTO donors(id_donor,name,normalized_name) VALUES
	  ('D001','Mercearia São João','mercearia sao joao'),
	  ('D002','Câmara Municipal','camara municipal')`)

	return tx.Commit()
}
