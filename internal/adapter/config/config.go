package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Database  *Database
	HTTP      *HTTP
	Pay       *Pay
	Promotion *Promotion
	App       *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

// Pay holds the gateway credentials. PayKey is the shared secret every
// inbound notification signature is checked against.
type Pay struct {
	MchID          string `env:"MCH_ID"`
	PayKey         string `env:"PAY_KEY"`
	NotifyURL      string `env:"NOTIFY_URL"`
	GatewayAddress string `env:"GATEWAY_ADDRESS"`
}

type Promotion struct {
	Address string `env:"PROMOTION_ADDRESS"`
}

func NewConfig() (*Config, error) {
	// Optional .env for local runs; real deployments set the env.
	_ = godotenv.Load()

	var db Database
	var http HTTP
	var pay Pay
	var promotion Promotion
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&pay.GatewayAddress, "g", "", "Payment gateway address")
	flag.StringVar(&promotion.Address, "p", "", "Promotion service address")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&pay)
	if err != nil {
		return nil, fmt.Errorf("error parsing pay config: %w", err)
	}
	err = env.Parse(&promotion)
	if err != nil {
		return nil, fmt.Errorf("error parsing promotion config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database:  &db,
		HTTP:      &http,
		Pay:       &pay,
		Promotion: &promotion,
		App:       &app,
	}

	return &config, nil
}
