package api

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles the business services the HTTP layer calls.
type Services struct {
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

// SetupRoutes mounts every endpoint under /api/v1.
// appBaseURL is the web app the OAuth callback redirects back to; empty answers with JSON.
func SetupRoutes(router *gin.Engine, jwtSecret, appBaseURL string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	relationshipHandler := NewRelationshipHandler(svc.Relationships)
	planHandler := NewTrainingPlanHandler(svc.Plans)
	workoutItems := NewPlanChildHandler(svc.Plans.Workouts())
	goalItems := NewPlanChildHandler(svc.Plans.Goals())
	nutritionItems := NewPlanChildHandler(svc.Plans.Nutrition())
	aiHandler := NewAIHandler(svc.PlanBuilder, svc.Chat)
	adminHandler := NewAdminHandler(svc.Admin, svc.Invites)
	messageHandler := NewMessageHandler(svc.Messages)
	integrationHandler := NewIntegrationHandler(svc.Integrations, appBaseURL)

	authMiddleware := AuthMiddleware(jwtSecret, svc.Auth)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/invite/:token", authHandler.InviteInfo)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
		}

		// Strava redirects the browser here without our token; the OAuth state identifies the user.
		apiV1.GET("/integrations/callback/:provider", integrationHandler.Callback)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Activity logs ---
		logs := protected.Group("")
		logs.Use(RequireCapability(domain.CapLogActivity))
		NewLogHandler(svc.Rides).Register(logs.Group("/rides"))
		NewLogHandler(svc.Workouts).Register(logs.Group("/workouts"))
		NewLogHandler(svc.Goals).Register(logs.Group("/goals"))
		NewLogHandler(svc.Nutrition).Register(logs.Group("/nutrition"))

		// --- Trainer requests and assignments ---
		requests := protected.Group("/trainer-requests")
		{
			requests.GET("", relationshipHandler.ListRequests)
			requests.POST("", RequireCapability(domain.CapSendTrainerRequest), relationshipHandler.SendRequest)
			requests.PUT("/:requestId/respond", RequireCapability(domain.CapManageAthletes), relationshipHandler.Respond)
			requests.GET("/trainers/search", relationshipHandler.SearchTrainers)
			requests.GET("/my-athletes", RequireCapability(domain.CapManageAthletes), relationshipHandler.MyAthletes)
			requests.GET("/assignments", relationshipHandler.ListAssignments)
			requests.DELETE("/assignments/:assignmentId", relationshipHandler.DeleteAssignment)
		}

		// --- Training plans ---
		// Reads and athlete progress updates are checked per plan by the service.
		plans := protected.Group("/training-plans")
		{
			managePlans := RequireCapability(domain.CapManagePlans)
			planBuilder := RequireCapability(domain.CapUsePlanBuilder)

			plans.GET("", planHandler.ListPlans)
			plans.POST("", managePlans, planHandler.CreatePlan)
			plans.POST("/batch", managePlans, planHandler.CreatePlanBatch)
			plans.POST("/parse-pdf", planBuilder, aiHandler.ParsePlanDocument)
			plans.POST("/from-parsed", planBuilder, aiHandler.CreateFromParsed)

			plans.GET("/:planId", planHandler.GetPlan)
			plans.PUT("/:planId", managePlans, planHandler.UpdatePlan)
			plans.DELETE("/:planId", managePlans, planHandler.DeletePlan)

			plans.GET("/:planId/workouts", workoutItems.List)
			plans.POST("/:planId/workouts", managePlans, workoutItems.Add)
			plans.PUT("/:planId/workouts/:itemId", workoutItems.Update)
			plans.DELETE("/:planId/workouts/:itemId", managePlans, workoutItems.Delete)

			plans.GET("/:planId/goals", goalItems.List)
			plans.POST("/:planId/goals", managePlans, goalItems.Add)
			plans.PUT("/:planId/goals/:itemId", goalItems.Update)
			plans.DELETE("/:planId/goals/:itemId", managePlans, goalItems.Delete)

			plans.GET("/:planId/nutrition", nutritionItems.List)
			plans.POST("/:planId/nutrition", managePlans, nutritionItems.Add)
			plans.PUT("/:planId/nutrition/:itemId", managePlans, nutritionItems.Update)
			plans.DELETE("/:planId/nutrition/:itemId", managePlans, nutritionItems.Delete)

			plans.GET("/:planId/documents", planHandler.ListDocuments)
			plans.POST("/:planId/documents", managePlans, planHandler.UploadDocument)
			plans.GET("/:planId/documents/:docId/download", planHandler.DownloadDocument)
			plans.DELETE("/:planId/documents/:docId", managePlans, planHandler.DeleteDocument)
		}

		protected.POST("/chat", RequireCapability(domain.CapLogActivity), aiHandler.Chat)

		// --- Admin ---
		admin := protected.Group("/admin")
		{
			users := admin.Group("/users", RequireCapability(domain.CapAdminUsers))
			users.GET("", adminHandler.ListUsers)
			users.GET("/:userId", adminHandler.GetUser)
			users.PUT("/:userId/role", adminHandler.ChangeRole)
			users.PUT("/:userId/lock", adminHandler.SetLocked)
			users.DELETE("/:userId", adminHandler.DeleteUser)

			assignments := admin.Group("/assignments", RequireCapability(domain.CapAdminAssignments))
			assignments.GET("", adminHandler.ListAssignments)
			assignments.POST("", adminHandler.CreateAssignment)
			assignments.DELETE("/:assignmentId", adminHandler.DeactivateAssignment)

			invites := admin.Group("/invites", RequireCapability(domain.CapAdminInvites))
			invites.GET("", adminHandler.ListInvites)
			invites.POST("", adminHandler.CreateInvite)
			invites.DELETE("/:inviteId", adminHandler.DeactivateInvite)

			admin.GET("/stats", RequireCapability(domain.CapViewStats), adminHandler.Stats)
		}

		// --- Messages ---
		messages := protected.Group("/messages", RequireCapability(domain.CapMessage))
		{
			messages.POST("", messageHandler.Send)
			messages.GET("/conversations", messageHandler.Conversations)
			messages.GET("/with/:userId", messageHandler.Thread)
			messages.GET("/unread-count", messageHandler.UnreadCount)
			messages.PUT("/:messageId/read", messageHandler.MarkRead)
		}

		// --- Integrations ---
		integrations := protected.Group("/integrations", RequireCapability(domain.CapSyncIntegrations))
		{
			integrations.GET("/status", integrationHandler.Status)
			integrations.GET("/connect/:provider", integrationHandler.Connect)
			integrations.POST("/sync/:provider", integrationHandler.Sync)
			integrations.DELETE("/disconnect/:provider", integrationHandler.Disconnect)
			integrations.GET("/activities", integrationHandler.Activities)
		}
	}
}
