package models

import (
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/astro"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChartRecord is a birth-chart submission and its derived chart.
// UserID holds the anonymous client id; OwnerUserID the registered account.
// A linked record carries both.
type ChartRecord struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	UserID      *string             `bson:"userId" json:"userId"`
	OwnerUserID *primitive.ObjectID `bson:"ownerUserId" json:"ownerUserId"`
	PersonName  string              `bson:"personName" json:"personName"`
	IsPrimary   bool                `bson:"isPrimary" json:"isPrimary"`

	Name             string      `bson:"name" json:"name"`
	BirthDate        time.Time   `bson:"birthDate" json:"birthDate"`
	BirthTime        string      `bson:"birthTime" json:"birthTime"`
	Location         string      `bson:"location" json:"location"`
	Latitude         float64     `bson:"latitude" json:"latitude"`
	Longitude        float64     `bson:"longitude" json:"longitude"`
	Timezone         string      `bson:"timezone" json:"timezone"`
	FormattedAddress string      `bson:"formattedAddress,omitempty" json:"formattedAddress,omitempty"`
	Country          string      `bson:"country,omitempty" json:"country,omitempty"`
	City             string      `bson:"city,omitempty" json:"city,omitempty"`
	PlaceID          string      `bson:"placeId,omitempty" json:"placeId,omitempty"`
	ChartData        astro.Chart `bson:"chartData" json:"chartData"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AssignOwner writes the ownership fields for owner and clears the other one.
func (c *ChartRecord) AssignOwner(owner Owner) {
	switch o := owner.(type) {
	case AccountOwner:
		id := o.AccountID
		c.OwnerUserID = &id
		c.UserID = nil
	case AnonymousOwner:
		id := o.ClientID
		c.UserID = &id
		c.OwnerUserID = nil
	case Unowned:
		c.UserID = nil
		c.OwnerUserID = nil
	default:
		panic("models: unknown owner type")
	}
}

// AnonymousID returns the anonymous owner id, or "" when unset.
func (c *ChartRecord) AnonymousID() string {
	if c.UserID == nil {
		return ""
	}
	return *c.UserID
}
