package apifx

import (
	"context"
	"errors"
	"etape/training-hub/internal/api"
	"etape/training-hub/internal/config"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Module builds the gin router and runs the HTTP server for the app's lifetime.
var Module = fx.Options(
	fx.Provide(provideServices, provideRouter, provideServer),
	fx.Invoke(startServer),
)

type serviceParams struct {
	fx.In

	Auth          service.AuthService
	Invites       service.InviteService
	Relationships service.RelationshipService
	Plans         service.TrainingPlanService
	PlanBuilder   service.PlanBuilderService
	Admin         service.AdminService
	Messages      service.MessageService
	Integrations  service.IntegrationService
	Chat          service.ChatService

	Rides     service.LogService[domain.Ride]
	Workouts  service.LogService[domain.Workout]
	Goals     service.LogService[domain.Goal]
	Nutrition service.LogService[domain.NutritionLog]
}

func provideServices(p serviceParams) api.Services {
	return api.Services{
		Auth:          p.Auth,
		Invites:       p.Invites,
		Relationships: p.Relationships,
		Plans:         p.Plans,
		PlanBuilder:   p.PlanBuilder,
		Admin:         p.Admin,
		Messages:      p.Messages,
		Integrations:  p.Integrations,
		Chat:          p.Chat,
		Rides:         p.Rides,
		Workouts:      p.Workouts,
		Goals:         p.Goals,
		Nutrition:     p.Nutrition,
	}
}

func provideRouter(cfg config.Config, svc api.Services) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery middleware
	router.Use(api.TraceMiddleware())
	router.Use(api.CORSMiddleware(cfg.Server.CORSOrigins))

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Email.AppBaseURL, svc)
	return router
}

func provideServer(cfg config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			log.Printf("Server starting on %s", server.Addr)
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("ERROR: HTTP server stopped: %v", err)
					shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Shutting down server...")
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	})
}
