package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func init() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	decimal.MarshalJSONWithoutQuotes = true
}

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init -g main.go -o docs --outputTypes json

// @title BudgetMate API
// @version 1.0
// @description Categories with monthly budgets, signed transactions and spending reports.
// @BasePath /
// @securityDefinitions.apikey XUserId
// @in header
// @name X-User-Id
func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
