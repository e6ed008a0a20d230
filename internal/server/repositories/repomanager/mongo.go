package repomanager

import (
	"context"
	"time"

	"github.com/totymark/totymark/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const UsersCollection = "users"

// OpenMongoUsers connects to MongoDB and returns a credential store backed by
// the users collection of dbName. The caller owns the client and must
// Disconnect it on shutdown.
func OpenMongoUsers(ctx context.Context, uri, dbName string) (*mongo.Client, *users.MongoRepository, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	repo := users.NewMongoRepository(client.Database(dbName).Collection(UsersCollection))
	if err := repo.EnsureIndexes(dialCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, repo, nil
}
