package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Owner identifies who a chart record belongs to. It is one of
// AnonymousOwner, AccountOwner or Unowned.
type Owner interface {
	isOwner()
	// HasKey reports whether the owner can have sibling charts.
	HasKey() bool
}

// AnonymousOwner is a client-generated identifier for a visitor without an account.
type AnonymousOwner struct {
	ClientID string
}

// AccountOwner is a registered account.
type AccountOwner struct {
	AccountID primitive.ObjectID
}

// Unowned marks a chart submitted with no identifier at all.
type Unowned struct{}

func (AnonymousOwner) isOwner() {}
func (AccountOwner) isOwner()   {}
func (Unowned) isOwner()        {}

func (AnonymousOwner) HasKey() bool { return true }
func (AccountOwner) HasKey() bool   { return true }
func (Unowned) HasKey() bool        { return false }
