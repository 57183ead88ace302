package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AccountsCollection = "users"

// AccountRepository is the MongoDB services.AccountStore.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(AccountsCollection)}
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", AccountsCollection, err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var acc models.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&acc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, services.ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) Insert(ctx context.Context, acc *models.Account) error {
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	acc.Email = strings.ToLower(strings.TrimSpace(acc.Email))

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, acc)
	return err
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id primitive.ObjectID, googleID string, at time.Time) error {
	set := bson.M{"lastLogin": at, "updatedAt": at}
	if googleID != "" {
		set["googleId"] = googleID
	}
	return r.update(ctx, id, set)
}

func (r *AccountRepository) SetPrimaryChart(ctx context.Context, accountID, chartID primitive.ObjectID) error {
	return r.update(ctx, accountID, bson.M{"primaryKundaliId": chartID, "updatedAt": time.Now().UTC()})
}

func (r *AccountRepository) update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrAccountNotFound
	}
	return nil
}
