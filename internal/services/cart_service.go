package services

import (
	"errors"
	"fmt"

	"armazem/internal/domain"
	"armazem/internal/repos"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrUnknownProduct = errors.New("unknown product")
	ErrBadQuantity    = errors.New("quantity must be at least 1")
	ErrBadCartType    = errors.New("cart type must be Entrada or Saída")
)

// CartService is the authoritative store for carts and their line items.
// The websocket coordinator and the REST handlers both mutate carts only
// through here.
type CartService struct {
	Carts    *repos.CartRepo
	Products *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, products *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Products: products}
}

func (s *CartService) Create(cartType string) (domain.Cart, error) {
	if cartType != domain.CartIncoming && cartType != domain.CartOutgoing {
		return domain.Cart{}, ErrBadCartType
	}
	return s.Carts.Create(cartType)
}

func (s *CartService) Get(id string) (domain.Cart, error) {
	cart, err := s.Carts.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return cart, ErrCartNotFound
	}
	return cart, err
}

func (s *CartService) All() ([]domain.Cart, error) { return s.Carts.All() }

func (s *CartService) Delete(id string) error {
	err := s.Carts.Delete(id)
	if errors.Is(err, repos.ErrNotFound) {
		return ErrCartNotFound
	}
	return err
}

func (s *CartService) Export(id string) error {
	err := s.Carts.SetExported(id)
	if errors.Is(err, repos.ErrNotFound) {
		return ErrCartNotFound
	}
	return err
}

// AddItem validates and appends a new line item, returning its assigned id.
func (s *CartService) AddItem(cartID, productID string, qty float64, expiration, description string) (int, error) {
	if qty < 1 {
		return 0, ErrBadQuantity
	}
	if _, err := s.Get(cartID); err != nil {
		return 0, err
	}
	if _, err := s.Products.Get(productID); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return 0, ErrUnknownProduct
		}
		return 0, fmt.Errorf("look up product: %w", err)
	}
	return s.Carts.AddItem(cartID, productID, qty, expiration, description)
}

func (s *CartService) EditItem(itemID int, qty float64, expiration, description string) error {
	if qty < 1 {
		return ErrBadQuantity
	}
	return s.Carts.EditItem(itemID, qty, expiration, description)
}

// DeleteItem is idempotent: removing an id that is already gone succeeds.
func (s *CartService) DeleteItem(itemID int) error {
	return s.Carts.DeleteItem(itemID)
}

// PurgeExported drops carts exported more than a week ago.
func (s *CartService) PurgeExported() error {
	return s.Carts.DeleteExportedStale()
}
