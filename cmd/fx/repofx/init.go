package repofx

import (
	repoMongo "etape/training-hub/internal/repository/mongo"

	"go.uber.org/fx"
)

// Module provides every MongoDB repository.
var Module = fx.Provide(
	repoMongo.NewMongoUserRepository,
	repoMongo.NewMongoRequestRepository,
	repoMongo.NewMongoAssignmentRepository,
	repoMongo.NewMongoInviteRepository,
	repoMongo.NewMongoMessageRepository,
	repoMongo.NewMongoTrainingPlanRepository,
	repoMongo.NewMongoPlannedWorkoutRepository,
	repoMongo.NewMongoPlannedGoalRepository,
	repoMongo.NewMongoNutritionPlanRepository,
	repoMongo.NewMongoDocumentRepository,
	repoMongo.NewMongoRideRepository,
	repoMongo.NewMongoWorkoutLogRepository,
	repoMongo.NewMongoGoalRepository,
	repoMongo.NewMongoNutritionLogRepository,
	repoMongo.NewMongoIntegrationRepository,
	repoMongo.NewMongoActivityRepository,
)
