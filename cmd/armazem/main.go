package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"armazem/internal/config"
	"armazem/internal/http/handlers"
	applog "armazem/internal/log"
	"armazem/internal/repos"
	"armazem/internal/services"
	"armazem/internal/ws"
)

// startCleanup purges carts exported more than a week ago, once at startup
// and then daily.
func startCleanup(carts *services.CartService) {
	go func() {
		tick := time.NewTicker(24 * time.Hour)
		defer tick.Stop()
		for {
			if err := carts.PurgeExported(); err != nil {
				applog.Error(nil, "cleanup.carts", err, nil)
			}
			<-tick.C
		}
	}()
}

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	authSvc, err := services.NewAuthService(cfg)
	if err != nil {
		log.Fatal(err)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg, authSvc)
	startCleanup(deps.CartService)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			applog.Error(c, "server.error", err, nil)
			return c.Status(code).JSON(fiber.Map{"error": "something went wrong"})
		},
	})
	app.Server().MaxRequestBodySize = 10 << 20 // map uploads

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,Origin",
	}))

	// ---------- Auth ----------
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), deps.AuthHandler.Login)
	app.Get("/login", deps.AuthHandler.Status)

	// ---------- Carts ----------
	app.Get("/cars", handlers.RequireToken(authSvc), deps.CartHandler.All)
	app.Post("/cars/create", deps.CartHandler.Create)
	app.Get("/cars/get", deps.CartHandler.Get)

	// ---------- Catalog ----------
	app.Get("/products", deps.ProductHandler.List)
	app.Post("/products", handlers.RequireToken(authSvc), deps.ProductHandler.Create)
	app.Get("/products/:id", deps.ProductHandler.Get)
	app.Put("/products/:id", handlers.RequireToken(authSvc), deps.ProductHandler.Update)
	app.Delete("/products/:id", handlers.RequireToken(authSvc), deps.ProductHandler.Delete)

	// ---------- Donors ----------
	app.Get("/donors", deps.DonorHandler.List)
	app.Post("/donors", handlers.RequireToken(authSvc), deps.DonorHandler.Create)
	app.Get("/donors/:id", deps.DonorHandler.Get)
	app.Put("/donors/:id", handlers.RequireToken(authSvc), deps.DonorHandler.Update)
	app.Delete("/donors/:id", handlers.RequireToken(authSvc), deps.DonorHandler.Delete)

	// ---------- Search ----------
	app.Get("/search/products", deps.SearchHandler.Products)
	app.Get("/search/donors", deps.SearchHandler.DonorsSearch)

	// ---------- Warehouse map ----------
	app.Get("/map", deps.MapHandler.Get)
	app.Post("/map", handlers.RequireToken(authSvc), deps.MapHandler.Upload)
	app.Static("/assets", "./assets")

	// ---------- Cart channel ----------
	registry := ws.NewRegistry()
	coordinator := ws.NewCoordinator(deps.CartService, registry)
	app.Use("/ws", ws.Upgrade)
	app.Get("/ws", ws.CartChannel(coordinator))

	// ---------- Health ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
