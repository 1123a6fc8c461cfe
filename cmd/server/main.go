package main

import (
	"etape/training-hub/cmd/fx/apifx"
	"etape/training-hub/cmd/fx/infrafx"
	"etape/training-hub/cmd/fx/repofx"
	"etape/training-hub/cmd/fx/servicefx"
	"log"

	"go.uber.org/fx"
)

// @title Etape Training Hub API
// @version 1.0
// @description Coaching platform for cyclists: trainer relationships, training plans, activity logs, messaging and Strava sync.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Etape Training Hub server...")

	app := fx.New(
		infrafx.Module,
		repofx.Module,
		servicefx.Module,
		apifx.Module,
		fx.NopLogger,
	)
	app.Run()

	log.Println("Server exiting.")
}
