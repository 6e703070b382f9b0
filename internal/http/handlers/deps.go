package handlers

import (
	"github.com/jmoiron/sqlx"

	"armazem/internal/config"
	"armazem/internal/repos"
	"armazem/internal/services"
)

type Deps struct {
	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	DonorHandler   *DonorHandler
	CartHandler    *CartHandler
	SearchHandler  *SearchHandler
	MapHandler     *MapHandler

	CartService *services.CartService
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	prodRepo := repos.NewProductRepo(db)
	donorRepo := repos.NewDonorRepo(db)
	cartRepo := repos.NewCartRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	donorSvc := services.NewDonorService(donorRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)

	return &Deps{
		AuthHandler:    &AuthHandler{Auth: auth},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		DonorHandler:   &DonorHandler{Donors: donorSvc},
		CartHandler:    &CartHandler{Carts: cartSvc, Auth: auth},
		SearchHandler:  &SearchHandler{Catalog: catalogSvc, Donors: donorSvc},
		MapHandler:     &MapHandler{Path: cfg.MapPath},
		CartService:    cartSvc,
	}
}
