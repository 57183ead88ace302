package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChartFilter selects charts for a listing. Set fields are OR-ed together.
// AccountID matches charts owned by the account, plus legacy charts whose
// userId is the account id in hex.
type ChartFilter struct {
	AccountID   *primitive.ObjectID
	AnonymousID string
}

func (f ChartFilter) Empty() bool {
	return f.AccountID == nil && f.AnonymousID == ""
}

type ChartStore interface {
	// ClearPrimary unsets isPrimary on every chart of exactly this owner.
	ClearPrimary(ctx context.Context, owner models.Owner) error
	Insert(ctx context.Context, chart *models.ChartRecord) error
	// List returns matches newest first, ties broken by id descending.
	List(ctx context.Context, filter ChartFilter) ([]models.ChartRecord, error)
	// FindUnclaimed returns ids of charts with this userId and no ownerUserId.
	FindUnclaimed(ctx context.Context, anonymousID string) ([]primitive.ObjectID, error)
	// AssignAccount sets ownerUserId if still unset and reports whether it did.
	AssignAccount(ctx context.Context, chartID, accountID primitive.ObjectID) (bool, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Insert(ctx context.Context, account *models.Account) error
	// RecordLogin refreshes lastLogin and attaches googleID when non-empty.
	RecordLogin(ctx context.Context, id primitive.ObjectID, googleID string, at time.Time) error
	SetPrimaryChart(ctx context.Context, accountID, chartID primitive.ObjectID) error
}

// Transactor runs fn atomically. Implementations pass a context that the
// stores must use for the work to join the transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
