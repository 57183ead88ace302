package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ChartsCollection = "userCharts"

// ChartRepository is the MongoDB services.ChartStore.
type ChartRepository struct {
	coll *mongo.Collection
}

func NewChartRepository(db *mongo.Database) *ChartRepository {
	return &ChartRepository{coll: db.Collection(ChartsCollection)}
}

func (r *ChartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "ownerUserId", Value: 1}}},
		{Keys: bson.D{{Key: "ownerUserId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", ChartsCollection, err)
	}
	return nil
}

// OwnerFilter matches the charts of exactly one owner key. Anonymous ids
// and account ids are never mixed.
func OwnerFilter(owner models.Owner) (bson.M, bool) {
	switch o := owner.(type) {
	case models.AccountOwner:
		return bson.M{"ownerUserId": o.AccountID}, true
	case models.AnonymousOwner:
		return bson.M{"userId": o.ClientID}, true
	}
	return nil, false
}

// ListFilter ORs the parts of f. An account also matches legacy charts
// that stored its id as a plain userId.
func ListFilter(f services.ChartFilter) bson.M {
	var or bson.A
	if f.AccountID != nil {
		or = append(or,
			bson.M{"ownerUserId": *f.AccountID},
			bson.M{"userId": f.AccountID.Hex()},
		)
	}
	if f.AnonymousID != "" {
		or = append(or, bson.M{"userId": f.AnonymousID})
	}
	return bson.M{"$or": or}
}

// UnclaimedFilter matches anonymous charts not yet linked to an account.
// A null filter value matches both null and missing fields.
func UnclaimedFilter(anonymousID string) bson.M {
	return bson.M{"userId": anonymousID, "ownerUserId": nil}
}

func (r *ChartRepository) ClearPrimary(ctx context.Context, owner models.Owner) error {
	filter, ok := OwnerFilter(owner)
	if !ok {
		return nil
	}
	filter["isPrimary"] = true

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.coll.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"isPrimary": false, "updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *ChartRepository) Insert(ctx context.Context, chart *models.ChartRecord) error {
	if chart.ID.IsZero() {
		chart.ID = primitive.NewObjectID()
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := r.coll.InsertOne(ctx, chart)
	return err
}

func (r *ChartRepository) List(ctx context.Context, f services.ChartFilter) ([]models.ChartRecord, error) {
	if f.Empty() {
		return []models.ChartRecord{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, ListFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	charts := []models.ChartRecord{}
	if err := cursor.All(ctx, &charts); err != nil {
		return nil, err
	}
	return charts, nil
}

func (r *ChartRepository) FindUnclaimed(ctx context.Context, anonymousID string) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, UnclaimedFilter(anonymousID), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// AssignAccount only updates a chart that is still unclaimed, so a
// concurrent link by another account cannot be overwritten.
func (r *ChartRepository) AssignAccount(ctx context.Context, chartID, accountID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": chartID, "ownerUserId": nil},
		bson.M{"$set": bson.M{"ownerUserId": accountID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
