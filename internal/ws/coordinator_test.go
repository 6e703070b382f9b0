package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"armazem/internal/repos"
	"armazem/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One shared connection, or every pool conn gets its own empty :memory: DB.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema := `
	PRAGMA foreign_keys = ON;
	CREATE TABLE products(id_product TEXT PRIMARY KEY, name TEXT NOT NULL, normalized_name TEXT NOT NULL,
	  unit TEXT NOT NULL DEFAULT '', pos_x INTEGER NOT NULL DEFAULT 0, pos_y INTEGER NOT NULL DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE donors(id_donor TEXT PRIMARY KEY, name TEXT NOT NULL, normalized_name TEXT NOT NULL,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE cars(id_car TEXT PRIMARY KEY, type TEXT NOT NULL, date_export TEXT NOT NULL DEFAULT '0',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE products_car(id INTEGER PRIMARY KEY AUTOINCREMENT,
	  id_car TEXT NOT NULL REFERENCES cars(id_car) ON DELETE CASCADE,
	  id_product TEXT NOT NULL REFERENCES products(id_product),
	  quantity REAL NOT NULL, expiration TEXT NOT NULL DEFAULT '', description TEXT NOT NULL DEFAULT '');

	INSERT INTO products(id_product,name,normalized_name,unit,pos_x,pos_y) VALUES
	  ('GA001','Feijão Preto','feijao preto','kg',120,80),
	  ('GA002','Arroz Agulha','arroz agulha','kg',140,80);
	INSERT INTO cars(id_car,type) VALUES ('ABC123','Entrada');
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func newTestCoordinator(t *testing.T) (*Coordinator, *Registry, *services.CartService) {
	t.Helper()
	db := memdb(t)
	svc := services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db))
	reg := NewRegistry()
	return NewCoordinator(svc, reg), reg, svc
}

func frame(t *testing.T, msg Message) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

// decodeFrames splits a connection's received frames into updates and errors.
func decodeFrames(t *testing.T, c *fakeConn) (updates []Update, errs []ErrorReply) {
	t.Helper()
	for _, raw := range c.Frames() {
		var probe struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.Unmarshal(raw, &probe))
		switch probe.Action {
		case ActionUpdate:
			var u Update
			require.NoError(t, json.Unmarshal(raw, &u))
			updates = append(updates, u)
		case ActionError:
			var e ErrorReply
			require.NoError(t, json.Unmarshal(raw, &e))
			errs = append(errs, e)
		default:
			t.Fatalf("unexpected action %q", probe.Action)
		}
	}
	return updates, errs
}

func TestAddProductBroadcastsToAllSubscribers(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	a, b := &fakeConn{}, &fakeConn{}
	reg.Subscribe("ABC123", a)
	reg.Subscribe("ABC123", b)

	co.Dispatch("ABC123", frame(t, Message{
		Action: ActionAddProduct, CartID: "ABC123",
		ProductID: "GA001", Quantity: 3, Expiration: "2025-01-01", Description: "lote1",
	}), a)

	for _, conn := range []*fakeConn{a, b} {
		updates, errs := decodeFrames(t, conn)
		require.Empty(t, errs)
		require.Len(t, updates, 1)
		require.Len(t, updates[0].Products, 1)
		p := updates[0].Products[0]
		assert.Equal(t, "GA001", p.ProductID)
		assert.Equal(t, 3.0, p.Quantity)
		assert.Equal(t, "2025-01-01", p.Expiration)
		assert.Equal(t, "lote1", p.Description)
		assert.Equal(t, "Feijão Preto", p.Name)
		assert.NotZero(t, p.ID)
	}
}

func TestAddProductZeroQuantityRejectedNoBroadcast(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	a, b := &fakeConn{}, &fakeConn{}
	reg.Subscribe("ABC123", a)
	reg.Subscribe("ABC123", b)

	co.Dispatch("ABC123", frame(t, Message{
		Action: ActionAddProduct, CartID: "ABC123", ProductID: "GA001", Quantity: 0,
	}), a)

	updates, errs := decodeFrames(t, a)
	assert.Empty(t, updates)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error, "quantity")
	// The peer sees nothing at all.
	assert.Empty(t, b.Frames())
}

func TestAddProductUnknownProductRejected(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	a := &fakeConn{}
	reg.Subscribe("ABC123", a)

	co.Dispatch("ABC123", frame(t, Message{
		Action: ActionAddProduct, CartID: "ABC123", ProductID: "NOPE", Quantity: 1,
	}), a)

	updates, errs := decodeFrames(t, a)
	assert.Empty(t, updates)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error, "unknown product")
}

func TestAddWithExistingIDEditsInPlace(t *testing.T) {
	co, reg, svc := newTestCoordinator(t)
	a := &fakeConn{}
	reg.Subscribe("ABC123", a)

	itemID, err := svc.AddItem("ABC123", "GA001", 2, "", "")
	require.NoError(t, err)

	co.Dispatch("ABC123", frame(t, Message{
		Action: ActionAddProduct, CartID: "ABC123",
		ID: itemID, ProductID: "GA001", Quantity: 7, Expiration: "2026-03-01", Description: "updated",
	}), a)

	updates, errs := decodeFrames(t, a)
	require.Empty(t, errs)
	require.Len(t, updates, 1)
	require.Len(t, updates[0].Products, 1)
	assert.Equal(t, 7.0, updates[0].Products[0].Quantity)
	assert.Equal(t, "updated", updates[0].Products[0].Description)
}

func TestDeleteProductIdempotent(t *testing.T) {
	co, reg, svc := newTestCoordinator(t)
	a := &fakeConn{}
	reg.Subscribe("ABC123", a)

	_, err := svc.AddItem("ABC123", "GA001", 1, "", "")
	require.NoError(t, err)

	// Deleting an id that never existed is a no-op, not an error.
	co.Dispatch("ABC123", frame(t, Message{Action: ActionDeleteProduct, CartID: "ABC123", ID: 9999}), a)

	updates, errs := decodeFrames(t, a)
	require.Empty(t, errs)
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].Products, 1)
}

func TestDeleteCartClosesChannelsAndGetFails(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	a, b := &fakeConn{}, &fakeConn{}
	reg.Subscribe("ABC123", a)
	reg.Subscribe("ABC123", b)

	co.Dispatch("ABC123", frame(t, Message{Action: ActionDeleteCart, CartID: "ABC123"}), a)

	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, reg.Count("ABC123"))

	// A late GetCar yields a not-found error, not an empty list.
	late := &fakeConn{}
	co.Dispatch("ABC123", frame(t, Message{Action: ActionGetCart, CartID: "ABC123"}), late)
	updates, errs := decodeFrames(t, late)
	assert.Empty(t, updates)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error, "not found")
}

func TestExportStampsCart(t *testing.T) {
	co, reg, svc := newTestCoordinator(t)
	a := &fakeConn{}
	reg.Subscribe("ABC123", a)

	co.Dispatch("ABC123", frame(t, Message{Action: ActionExport, CartID: "ABC123"}), a)

	cart, err := svc.Get("ABC123")
	require.NoError(t, err)
	assert.NotEqual(t, "0", cart.DateExport)

	updates, errs := decodeFrames(t, a)
	assert.Empty(t, errs)
	assert.Len(t, updates, 1)
}

func TestMalformedAndUnknownFramesAnswerOriginOnly(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	a, b := &fakeConn{}, &fakeConn{}
	reg.Subscribe("ABC123", a)
	reg.Subscribe("ABC123", b)

	co.Dispatch("ABC123", []byte(`{not json`), a)
	co.Dispatch("ABC123", frame(t, Message{Action: "Nonsense", CartID: "ABC123"}), a)

	_, errs := decodeFrames(t, a)
	require.Len(t, errs, 2)
	assert.Empty(t, b.Frames())
}

// overlapConn trips if two writers are inside WriteMessage at the same time,
// which the real websocket forbids.
type overlapConn struct {
	active  atomic.Int32
	overlap atomic.Bool
}

func (o *overlapConn) WriteMessage(int, []byte) error {
	if o.active.Add(1) > 1 {
		o.overlap.Store(true)
	}
	time.Sleep(50 * time.Microsecond)
	o.active.Add(-1)
	return nil
}

func (o *overlapConn) Close() error { return nil }

func TestRepliesNeverOverlapBroadcastsOnOneConn(t *testing.T) {
	co, reg, _ := newTestCoordinator(t)
	watched := &overlapConn{}
	sub := reg.Subscribe("ABC123", watched)
	peer := reg.Subscribe("ABC123", &fakeConn{})

	getCart := frame(t, Message{Action: ActionGetCart, CartID: "ABC123"})
	malformed := []byte(`{not json`)

	// One goroutine keeps broadcasting to the watched connection while the
	// other keeps provoking direct error replies on it.
	const rounds = 300
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			co.Dispatch("ABC123", getCart, peer)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			co.Dispatch("ABC123", malformed, sub)
		}
	}()
	wg.Wait()

	assert.False(t, watched.overlap.Load(), "two writers reached the same connection at once")
}

func TestConcurrentMutationsSerializeAndBroadcastInOrder(t *testing.T) {
	co, reg, svc := newTestCoordinator(t)
	watcher := &fakeConn{}
	reg.Subscribe("ABC123", watcher)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			origin := &fakeConn{}
			co.Dispatch("ABC123", frame(t, Message{
				Action: ActionAddProduct, CartID: "ABC123",
				ProductID: "GA001", Quantity: float64(n + 1), Description: fmt.Sprintf("batch-%d", n),
			}), origin)
		}(i)
	}
	wg.Wait()

	cart, err := svc.Get("ABC123")
	require.NoError(t, err)
	// No lost updates, no duplication.
	require.Len(t, cart.Items, writers)

	// The watcher got exactly one update per mutation, each reflecting one
	// more item than the last: fan-out order matches apply order.
	updates, errs := decodeFrames(t, watcher)
	require.Empty(t, errs)
	require.Len(t, updates, writers)
	for i, u := range updates {
		assert.Len(t, u.Products, i+1)
	}
}
