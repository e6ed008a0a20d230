package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores users in a MongoDB collection using the document
// layout of the original users collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email"`
	FullName       string             `bson:"full_name,omitempty"`
	HashedPassword string             `bson:"hashed_password"`
	CreatedAt      time.Time          `bson:"created_at"`
	LastSeen       *time.Time         `bson:"last_seen,omitempty"`
	IsActive       bool               `bson:"is_active"`
}

// EnsureIndexes creates the unique username index the store relies on for
// duplicate detection.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	doc := userDocument{
		Username:       user.UserName,
		Email:          user.Email,
		FullName:       user.FullName,
		HashedPassword: user.PasswordHash,
		CreatedAt:      user.CreatedAt,
		IsActive:       user.Active,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return user, nil
}

func (r *MongoRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.M{"username": userName}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return &models.User{
		ID:           doc.ID.Hex(),
		UserName:     doc.Username,
		Email:        doc.Email,
		FullName:     doc.FullName,
		PasswordHash: doc.HashedPassword,
		CreatedAt:    doc.CreatedAt,
		LastSeen:     doc.LastSeen,
		Active:       doc.IsActive,
	}, nil
}

func (r *MongoRepository) SetActive(ctx context.Context, userName string, active bool) error {
	return r.updateOne(ctx, userName, bson.M{"is_active": active})
}

func (r *MongoRepository) TouchLastSeen(ctx context.Context, userName string, at time.Time) error {
	return r.updateOne(ctx, userName, bson.M{"last_seen": at})
}

func (r *MongoRepository) updateOne(ctx context.Context, userName string, set bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"username": userName}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
