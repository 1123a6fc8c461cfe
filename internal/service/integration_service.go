package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/strava"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OAuthStateTTL is how long a connect link stays usable.
const OAuthStateTTL = 10 * time.Minute

var (
	ErrUnknownProvider    = errors.New("unsupported integration provider")
	ErrInvalidState       = errors.New("invalid or expired OAuth state")
	ErrNotConnectedTo     = errors.New("integration is not connected")
	ErrIntegrationsOff    = errors.New("integration is not configured on this server")
	ErrInvalidSyncWindow  = InputError("days must be between 1 and 90")
	ErrInvalidCallbackArg = InputError("code and state are required")
)

// StravaClient is the part of the Strava client the service uses.
type StravaClient interface {
	Enabled() bool
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*strava.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*strava.Token, error)
	ListActivities(ctx context.Context, accessToken string, userID primitive.ObjectID, after time.Time) ([]domain.Activity, error)
}

// SyncResult counts what a sync imported.
type SyncResult struct {
	Provider string    `json:"provider"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	SyncedAt time.Time `json:"syncedAt"`
}

type IntegrationService interface {
	Status(ctx context.Context, actor Actor) ([]domain.IntegrationStatus, error)
	// Connect starts the OAuth flow and returns the provider's authorization URL.
	Connect(ctx context.Context, actor Actor, provider string) (authURL, state string, err error)
	Callback(ctx context.Context, provider, code, state string) (*domain.Integration, error)
	Sync(ctx context.Context, actor Actor, provider string, days int) (*SyncResult, error)
	Disconnect(ctx context.Context, actor Actor, provider string) error
	Activities(ctx context.Context, actor Actor, filter domain.ActivityFilter) ([]domain.Activity, error)
}

type integrationService struct {
	integrationRepo repository.IntegrationRepository
	activityRepo    repository.ActivityRepository
	stateRepo       repository.OAuthStateRepository
	strava          StravaClient
	now             func() time.Time
}

func NewIntegrationService(
	integrationRepo repository.IntegrationRepository,
	activityRepo repository.ActivityRepository,
	stateRepo repository.OAuthStateRepository,
	stravaClient StravaClient,
) IntegrationService {
	return &integrationService{
		integrationRepo: integrationRepo,
		activityRepo:    activityRepo,
		stateRepo:       stateRepo,
		strava:          stravaClient,
		now:             time.Now,
	}
}

func (s *integrationService) provider(name string) error {
	if name != domain.ProviderStrava {
		return ErrUnknownProvider
	}
	if !s.strava.Enabled() {
		return ErrIntegrationsOff
	}
	return nil
}

func (s *integrationService) Status(ctx context.Context, actor Actor) ([]domain.IntegrationStatus, error) {
	list, err := s.integrationRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	status := domain.IntegrationStatus{Provider: domain.ProviderStrava}
	for _, in := range list {
		if in.Provider == domain.ProviderStrava {
			connectedAt := in.ConnectedAt
			status.Connected = true
			status.ConnectedAt = &connectedAt
			status.LastSync = in.LastSync
			status.ExternalID = in.ExternalID
		}
	}
	return []domain.IntegrationStatus{status}, nil
}

func (s *integrationService) Connect(ctx context.Context, actor Actor, provider string) (string, string, error) {
	if err := s.provider(provider); err != nil {
		return "", "", err
	}
	state, err := newToken(24)
	if err != nil {
		return "", "", err
	}
	if err := s.stateRepo.Save(ctx, state, actor.ID.Hex(), OAuthStateTTL); err != nil {
		return "", "", err
	}
	authURL, err := s.strava.AuthCodeURL(state)
	if err != nil {
		return "", "", err
	}
	return authURL, state, nil
}

// Callback completes the OAuth flow. The user comes from the stored state, not a token,
// because the provider redirects the browser here without our Authorization header.
func (s *integrationService) Callback(ctx context.Context, provider, code, state string) (*domain.Integration, error) {
	if err := s.provider(provider); err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, ErrInvalidCallbackArg
	}
	hexID, err := s.stateRepo.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, ErrInvalidState
	}

	tok, err := s.strava.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	expiry := tok.Expiry
	in := &domain.Integration{
		UserID:         userID,
		Provider:       provider,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		TokenExpiresAt: &expiry,
		ExternalID:     tok.AthleteID,
		ConnectedAt:    s.now().UTC(),
	}
	if err := s.integrationRepo.Upsert(ctx, in); err != nil {
		return nil, err
	}
	log.Printf("INFO: User %s connected %s", userID.Hex(), provider)
	return in, nil
}

// Sync imports activities from the last days days, skipping ones already stored.
func (s *integrationService) Sync(ctx context.Context, actor Actor, provider string, days int) (*SyncResult, error) {
	if days < 1 || days > 90 {
		return nil, ErrInvalidSyncWindow
	}
	if err := s.provider(provider); err != nil {
		return nil, err
	}
	in, err := s.integrationRepo.Get(ctx, actor.ID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotConnectedTo
		}
		return nil, err
	}

	now := s.now().UTC()
	if in.TokenExpired(now) {
		tok, err := s.strava.Refresh(ctx, in.RefreshToken)
		if err != nil {
			return nil, err
		}
		expiry := tok.Expiry
		in.AccessToken, in.RefreshToken, in.TokenExpiresAt = tok.AccessToken, tok.RefreshToken, &expiry
		if err := s.integrationRepo.Upsert(ctx, in); err != nil {
			return nil, err
		}
	}

	activities, err := s.strava.ListActivities(ctx, in.AccessToken, actor.ID, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Provider: provider, SyncedAt: now}
	for i := range activities {
		a := &activities[i]
		exists, err := s.activityRepo.ExistsExternal(ctx, actor.ID, a.Source, a.ExternalID)
		if err != nil {
			return nil, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := s.activityRepo.Create(ctx, a); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				res.Skipped++
				continue
			}
			return nil, err
		}
		res.Imported++
	}
	if err := s.integrationRepo.SetLastSync(ctx, in.ID, now); err != nil {
		return nil, err
	}
	log.Printf("INFO: %s sync for user %s: %d imported, %d skipped", provider, actor.ID.Hex(), res.Imported, res.Skipped)
	return res, nil
}

func (s *integrationService) Disconnect(ctx context.Context, actor Actor, provider string) error {
	if provider != domain.ProviderStrava {
		return ErrUnknownProvider
	}
	err := s.integrationRepo.Delete(ctx, actor.ID, provider)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotConnectedTo
	}
	return err
}

func (s *integrationService) Activities(ctx context.Context, actor Actor, filter domain.ActivityFilter) ([]domain.Activity, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	return s.activityRepo.List(ctx, actor.ID, filter)
}
