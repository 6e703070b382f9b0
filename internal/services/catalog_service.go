package services

import (
	"armazem/internal/domain"
	"armazem/internal/repos"
)

type CatalogService struct {
	Products *repos.ProductRepo
}

func NewCatalogService(products *repos.ProductRepo) *CatalogService {
	return &CatalogService{Products: products}
}

func (s *CatalogService) All() ([]domain.Product, error)        { return s.Products.All() }
func (s *CatalogService) Get(id string) (domain.Product, error) { return s.Products.Get(id) }
func (s *CatalogService) Create(id, name, unit string) error    { return s.Products.Create(id, name, unit) }
func (s *CatalogService) Delete(id string) error                { return s.Products.Delete(id) }

func (s *CatalogService) Update(id, name, unit string, posX, posY int) error {
	return s.Products.Update(id, name, unit, posX, posY)
}

// Search prefers an id fragment when both are given, matching how the
// search endpoints have always behaved.
func (s *CatalogService) Search(idFragment, nameFragment string) ([]domain.Product, error) {
	if idFragment != "" {
		return s.Products.SearchByID(idFragment)
	}
	return s.Products.SearchByName(nameFragment)
}
