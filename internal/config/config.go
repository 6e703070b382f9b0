package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DBDSN             string
	LogFile           string
	JWTSecret         string
	AdminPassword     string
	VolunteerPassword string
	MapPath           string
	CORSOrigins       string
}

func Load() Config {
	// .env is optional; deployed environments set real env vars.
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "armazem.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	mapPath := os.Getenv("MAP_PATH")
	if mapPath == "" {
		mapPath = "./assets/mapa.png"
	}
	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000"
	}

	cfg := Config{
		Port:              port,
		DBDSN:             dsn,
		LogFile:           logFile,
		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		VolunteerPassword: os.Getenv("VOLUNTEER_PASSWORD"),
		MapPath:           mapPath,
		CORSOrigins:       origins,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MAP_PATH=%s CORS_ORIGINS=%s",
		cfg.Port, cfg.DBDSN, cfg.MapPath, strings.Join(strings.Fields(cfg.CORSOrigins), ","))
	return cfg
}
