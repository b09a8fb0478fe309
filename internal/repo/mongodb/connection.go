package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers         = "users"
	collContacts      = "contacts"
	collTags          = "tags"
	collActivities    = "activities"
	collConversations = "conversations"
	collChats         = "chats"
)

// DB is the process-wide connection pool. It is built once by the
// composition root and disconnected on shutdown.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func (db *DB) Collection(name string) *mongo.Collection {
	return db.Database.Collection(name)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// ones back the get-or-create and duplicate detection paths.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	for coll, indexes := range indexSpecs() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func indexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collUsers: {
			{
				Keys:    bson.D{{Key: "subject_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("subject_id_unique"),
			},
		},
		collContacts: {
			{
				Keys: bson.D{
					{Key: "created_by", Value: 1},
					{Key: "email", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName("owner_email_unique"),
			},
			{
				Keys: bson.D{
					{Key: "created_by", Value: 1},
					{Key: "last_interaction", Value: -1},
				},
				Options: options.Index().SetName("owner_recent"),
			},
			{
				Keys: bson.D{
					{Key: "created_by", Value: 1},
					{Key: "tags", Value: 1},
				},
				Options: options.Index().SetName("owner_tags"),
			},
		},
		collTags: {
			{
				Keys: bson.D{
					{Key: "created_by", Value: 1},
					{Key: "name_key", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName("owner_name_key_unique"),
			},
		},
		collActivities: {
			{
				Keys: bson.D{
					{Key: "user", Value: 1},
					{Key: "timestamp", Value: -1},
				},
				Options: options.Index().SetName("user_recent"),
			},
		},
		collConversations: {
			{
				Keys: bson.D{
					{Key: "user", Value: 1},
					{Key: "last_updated", Value: -1},
				},
				Options: options.Index().SetName("user_recent"),
			},
		},
		collChats: {
			{
				Keys: bson.D{
					{Key: "conversation", Value: 1},
					{Key: "timestamp", Value: 1},
				},
				Options: options.Index().SetName("conversation_timeline"),
			},
		},
	}
}
