package servicefx

import (
	"etape/training-hub/internal/config"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/email"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Provide(
	provideAuthService,
	provideInviteService,
	service.NewRelationshipService,
	service.NewAdminService,
	service.NewTrainingPlanService,
	service.NewPlanBuilderService,
	service.NewMessageService,
	service.NewIntegrationService,
	service.NewChatService,
	provideRideService,
	provideWorkoutService,
	provideGoalService,
	provideNutritionService,
)

func provideAuthService(users repository.UserRepository, invites repository.InviteRepository, cfg config.Config) service.AuthService {
	return service.NewAuthService(users, invites, cfg.JWT.Secret, cfg.JWT.Expiration)
}

func provideInviteService(invites repository.InviteRepository, sender email.Sender, cfg config.Config) service.InviteService {
	return service.NewInviteService(invites, sender, cfg.Email.AppBaseURL)
}

func provideRideService(repo repository.RideRepository, assignments repository.AssignmentRepository) service.LogService[domain.Ride] {
	return service.NewLogService[domain.Ride](repo, assignments)
}

func provideWorkoutService(repo repository.WorkoutLogRepository, assignments repository.AssignmentRepository) service.LogService[domain.Workout] {
	return service.NewLogService[domain.Workout](repo, assignments)
}

func provideGoalService(repo repository.GoalRepository, assignments repository.AssignmentRepository) service.LogService[domain.Goal] {
	return service.NewLogService[domain.Goal](repo, assignments)
}

func provideNutritionService(repo repository.NutritionLogRepository, assignments repository.AssignmentRepository) service.LogService[domain.NutritionLog] {
	return service.NewLogService[domain.NutritionLog](repo, assignments)
}
