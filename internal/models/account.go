package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCredits are granted to every new account.
const DefaultCredits = 5

type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"-"`

	GoogleID string `bson:"googleId,omitempty" json:"-"`
	// Mobile is reserved for phone login.
	Mobile string `bson:"mobile,omitempty" json:"-"`

	Email  string `bson:"email" json:"email"`
	Name   string `bson:"name" json:"name"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	IsEmailVerified  bool `bson:"isEmailVerified" json:"isEmailVerified"`
	IsMobileVerified bool `bson:"isMobileVerified" json:"isMobileVerified"`

	Credits               int                 `bson:"credits" json:"credits"`
	TotalCreditsPurchased int                 `bson:"totalCreditsPurchased" json:"-"`
	PrimaryChartID        *primitive.ObjectID `bson:"primaryKundaliId" json:"-"`

	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
}

// PublicProfile is the subset of an account returned to clients.
type PublicProfile struct {
	ID               string    `json:"_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Avatar           string    `json:"avatar,omitempty"`
	Credits          int       `json:"credits"`
	IsEmailVerified  bool      `json:"isEmailVerified"`
	IsMobileVerified bool      `json:"isMobileVerified"`
	CreatedAt        time.Time `json:"createdAt"`
	LastLogin        time.Time `json:"lastLogin"`
}

func (a *Account) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:               a.ID.Hex(),
		Email:            a.Email,
		Name:             a.Name,
		Avatar:           a.Avatar,
		Credits:          a.Credits,
		IsEmailVerified:  a.IsEmailVerified,
		IsMobileVerified: a.IsMobileVerified,
		CreatedAt:        a.CreatedAt,
		LastLogin:        a.LastLogin,
	}
}

// NewGoogleAccount builds an account for a first-time Google sign-in.
func NewGoogleAccount(googleID, email, name, avatar string, now time.Time) *Account {
	return &Account{
		ID:              primitive.NewObjectID(),
		CreatedAt:       now,
		UpdatedAt:       now,
		GoogleID:        googleID,
		Email:           email,
		Name:            name,
		Avatar:          avatar,
		IsEmailVerified: true,
		Credits:         DefaultCredits,
		LastLogin:       now,
	}
}
