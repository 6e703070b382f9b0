package services

import (
	"armazem/internal/domain"
	"armazem/internal/repos"
)

type DonorService struct {
	Donors *repos.DonorRepo
}

func NewDonorService(donors *repos.DonorRepo) *DonorService {
	return &DonorService{Donors: donors}
}

func (s *DonorService) All() ([]domain.Donor, error)        { return s.Donors.All() }
func (s *DonorService) Get(id string) (domain.Donor, error) { return s.Donors.Get(id) }
func (s *DonorService) Create(id, name string) error        { return s.Donors.Create(id, name) }
func (s *DonorService) Update(id, name string) error        { return s.Donors.Update(id, name) }
func (s *DonorService) Delete(id string) error              { return s.Donors.Delete(id) }

func (s *DonorService) Search(idFragment, nameFragment string) ([]domain.Donor, error) {
	if idFragment != "" {
		return s.Donors.SearchByID(idFragment)
	}
	return s.Donors.SearchByName(nameFragment)
}
