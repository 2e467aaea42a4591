package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/gradpass/ceremony-tickets/cmd/app"
)

// @contact.name   Ceremony Office
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token issued by the account service
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
