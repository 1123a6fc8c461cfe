package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProviderStrava = "strava"
	SourceManual   = "manual"
)

// Integration holds a user's OAuth credentials for an external provider.
type Integration struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Provider       string             `bson:"provider" json:"provider"`
	AccessToken    string             `bson:"accessToken" json:"-"`
	RefreshToken   string             `bson:"refreshToken,omitempty" json:"-"`
	TokenExpiresAt *time.Time         `bson:"tokenExpiresAt,omitempty" json:"-"`
	ExternalID     string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	ConnectedAt    time.Time          `bson:"connectedAt" json:"connectedAt"`
	LastSync       *time.Time         `bson:"lastSync,omitempty" json:"lastSync,omitempty"`
}

// TokenExpired reports whether the access token must be refreshed before use.
func (i *Integration) TokenExpired(now time.Time) bool {
	return i.TokenExpiresAt != nil && !now.Before(*i.TokenExpiresAt)
}

// IntegrationStatus is the public view of one provider's connection.
type IntegrationStatus struct {
	Provider    string     `json:"provider"`
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
	ExternalID  string     `json:"externalId,omitempty"`
}

// Activity is an imported session from an external provider.
type Activity struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Source          string             `bson:"source" json:"source"`
	ExternalID      string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	ActivityType    string             `bson:"activityType" json:"activityType"`
	Name            string             `bson:"name" json:"name"`
	ActivityDate    time.Time          `bson:"activityDate" json:"activityDate"`
	DurationMinutes *float64           `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	DistanceKm      *float64           `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	ElevationM      *float64           `bson:"elevationM,omitempty" json:"elevationM,omitempty"`
	Calories        *int               `bson:"calories,omitempty" json:"calories,omitempty"`
	HeartRateAvg    *int               `bson:"heartRateAvg,omitempty" json:"heartRateAvg,omitempty"`
	HeartRateMax    *int               `bson:"heartRateMax,omitempty" json:"heartRateMax,omitempty"`
	PowerAvg        *int               `bson:"powerAvg,omitempty" json:"powerAvg,omitempty"`
	PowerMax        *int               `bson:"powerMax,omitempty" json:"powerMax,omitempty"`
	CadenceAvg      *int               `bson:"cadenceAvg,omitempty" json:"cadenceAvg,omitempty"`
	SpeedAvgKmh     *float64           `bson:"speedAvgKmh,omitempty" json:"speedAvgKmh,omitempty"`
	SpeedMaxKmh     *float64           `bson:"speedMaxKmh,omitempty" json:"speedMaxKmh,omitempty"`
	Raw             map[string]any     `bson:"raw,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActivityFilter narrows activity listings. Zero values mean no constraint.
type ActivityFilter struct {
	ActivityType string
	Start        *time.Time
	End          *time.Time
	Skip         int64
	Limit        int64
}

var stravaTypes = map[string]string{
	"ride":           "cycling",
	"virtualride":    "cycling",
	"run":            "running",
	"virtualrun":     "running",
	"swim":           "swimming",
	"walk":           "walking",
	"hike":           "hiking",
	"weighttraining": "strength",
	"yoga":           "yoga",
}

// NormalizeActivityType maps a provider's sport name onto our activity types.
func NormalizeActivityType(providerType string) string {
	t := strings.ToLower(providerType)
	if mapped, ok := stravaTypes[t]; ok {
		return mapped
	}
	return t
}
