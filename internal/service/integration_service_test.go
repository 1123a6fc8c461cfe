package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"net/url"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func connectedStrava(t *testing.T, svc IntegrationService, actor Actor) {
	t.Helper()
	authURL, state, err := svc.Connect(context.Background(), actor, domain.ProviderStrava)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	u, err := url.Parse(authURL)
	if err != nil || u.Query().Get("state") != state {
		t.Fatalf("auth URL %q does not carry state %q", authURL, state)
	}
	if _, err := svc.Callback(context.Background(), domain.ProviderStrava, "good-code", state); err != nil {
		t.Fatalf("Callback() error: %v", err)
	}
}

func TestIntegrationConnectFlow(t *testing.T) {
	rider := actorOf(athlete("Rider"))
	integrations := &fakeIntegrations{}
	svc := NewIntegrationService(integrations, &fakeActivities{}, &fakeStates{}, &fakeStrava{})
	ctx := context.Background()

	if _, _, err := svc.Connect(ctx, rider, "garmin"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Connect(garmin) = %v, want ErrUnknownProvider", err)
	}
	if _, err := svc.Callback(ctx, domain.ProviderStrava, "good-code", "forged"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("forged state = %v, want ErrInvalidState", err)
	}

	_, state, err := svc.Connect(ctx, rider, domain.ProviderStrava)
	if err != nil {
		t.Fatal(err)
	}
	in, err := svc.Callback(ctx, domain.ProviderStrava, "good-code", state)
	if err != nil {
		t.Fatalf("Callback() error: %v", err)
	}
	if in.UserID != rider.ID || in.ExternalID != "777" {
		t.Errorf("integration = %+v", in)
	}
	// state is single use
	if _, err := svc.Callback(ctx, domain.ProviderStrava, "good-code", state); !errors.Is(err, ErrInvalidState) {
		t.Errorf("replayed state = %v, want ErrInvalidState", err)
	}

	status, err := svc.Status(ctx, rider)
	if err != nil {
		t.Fatal(err)
	}
	if len(status) != 1 || !status[0].Connected || status[0].ExternalID != "777" {
		t.Errorf("status = %+v", status)
	}

	if err := svc.Disconnect(ctx, rider, domain.ProviderStrava); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	if err := svc.Disconnect(ctx, rider, domain.ProviderStrava); !errors.Is(err, ErrNotConnectedTo) {
		t.Errorf("second Disconnect() = %v, want ErrNotConnectedTo", err)
	}
}

func TestIntegrationSyncSkipsDuplicates(t *testing.T) {
	rider := actorOf(athlete("Rider"))
	activities := &fakeActivities{}
	client := &fakeStrava{activities: []domain.Activity{
		{Source: domain.ProviderStrava, ExternalID: "1", ActivityType: "cycling", Name: "Morning ride"},
		{Source: domain.ProviderStrava, ExternalID: "2", ActivityType: "running", Name: "Jog"},
	}}
	integrations := &fakeIntegrations{}
	svc := NewIntegrationService(integrations, activities, &fakeStates{}, client)
	ctx := context.Background()

	if _, err := svc.Sync(ctx, rider, domain.ProviderStrava, 30); !errors.Is(err, ErrNotConnectedTo) {
		t.Errorf("sync before connect = %v, want ErrNotConnectedTo", err)
	}
	connectedStrava(t, svc, rider)

	if _, err := svc.Sync(ctx, rider, domain.ProviderStrava, 0); !errors.Is(err, ErrInvalidSyncWindow) {
		t.Errorf("days=0 = %v, want ErrInvalidSyncWindow", err)
	}
	first, err := svc.Sync(ctx, rider, domain.ProviderStrava, 30)
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if first.Imported != 2 || first.Skipped != 0 {
		t.Errorf("first sync = %+v", first)
	}
	second, err := svc.Sync(ctx, rider, domain.ProviderStrava, 30)
	if err != nil {
		t.Fatal(err)
	}
	if second.Imported != 0 || second.Skipped != 2 {
		t.Errorf("second sync = %+v", second)
	}
	if client.refreshed != 0 {
		t.Errorf("fresh token refreshed %d times", client.refreshed)
	}

	listed, err := svc.Activities(ctx, rider, domain.ActivityFilter{ActivityType: "cycling"})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Name != "Morning ride" {
		t.Errorf("cycling activities = %+v", listed)
	}
}

func TestIntegrationSyncRefreshesExpiredToken(t *testing.T) {
	rider := actorOf(athlete("Rider"))
	expired := time.Now().Add(-time.Minute)
	integrations := &fakeIntegrations{list: []*domain.Integration{{
		ID:             primitive.NewObjectID(),
		UserID:         rider.ID,
		Provider:       domain.ProviderStrava,
		AccessToken:    "stale",
		RefreshToken:   "rt",
		TokenExpiresAt: &expired,
	}}}
	client := &fakeStrava{}
	svc := NewIntegrationService(integrations, &fakeActivities{}, &fakeStates{}, client)

	res, err := svc.Sync(context.Background(), rider, domain.ProviderStrava, 7)
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if client.refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", client.refreshed)
	}
	stored, _ := integrations.Get(context.Background(), rider.ID, domain.ProviderStrava)
	if stored.AccessToken != "at2" || stored.LastSync == nil || !stored.LastSync.Equal(res.SyncedAt) {
		t.Errorf("stored integration = %+v", stored)
	}
}
