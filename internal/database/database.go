package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultDatabase is used when the connection string names no database.
const DefaultDatabase = "astravedam"

// opTimeout bounds each repository call.
const opTimeout = 5 * time.Second

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, mongoURI, dbName string) (*Mongo, error) {
	// Atlas can be slow on cold start
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	logging.Info().Msg("Attempting to connect to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	if dbName == "" {
		dbName = DatabaseName(mongoURI)
	}

	logging.Info().Str("database", dbName).Msg("Connected to MongoDB")
	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

// DatabaseName extracts the database from a connection string such as
// mongodb+srv://user:pw@host/astro?retryWrites=true.
func DatabaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return DefaultDatabase
	}
	name := strings.SplitN(rest[i+1:], "?", 2)[0]
	if name == "" {
		return DefaultDatabase
	}
	return name
}

// Ping reports whether the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// RunInTransaction runs fn in a multi-document transaction. Needs a replica
// set or Atlas; standalone servers reject it.
func (m *Mongo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
