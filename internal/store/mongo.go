package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoBackend stores documents in MongoDB collections.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoBackend wraps an already connected client and database.
func NewMongoBackend(client *mongo.Client, db *mongo.Database) *MongoBackend {
	return &MongoBackend{client: client, db: db}
}

func (b *MongoBackend) FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.D
	err := b.db.Collection(collection).FindOne(ctx, orEmpty(filter), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (b *MongoBackend) Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	opts := options.Find()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := b.db.Collection(collection).Find(ctx, orEmpty(filter), opts)
	if err != nil {
		return nil, err
	}
	docs := make([]bson.D, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (b *MongoBackend) UpdateOne(ctx context.Context, collection string, filter bson.D, update Update) (bson.D, error) {
	var op bson.D
	switch u := update.(type) {
	case Set:
		op = bson.D{{Key: "$set", Value: u.Fields}}
	case Push:
		op = bson.D{{Key: "$addToSet", Value: bson.D{{Key: u.Field, Value: u.Value}}}}
	case Pull:
		op = bson.D{{Key: "$pull", Value: bson.D{{Key: u.Field, Value: u.Value}}}}
	default:
		return nil, fmt.Errorf("store: unsupported update %T", update)
	}
	op = append(op, bson.E{Key: "$inc", Value: bson.D{{Key: VersionField, Value: 1}}})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.D
	err := b.db.Collection(collection).FindOneAndUpdate(ctx, orEmpty(filter), op, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (b *MongoBackend) InsertOne(ctx context.Context, collection string, doc bson.D) error {
	if _, err := b.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (b *MongoBackend) DeleteOne(ctx context.Context, collection string, filter bson.D) error {
	result, err := b.db.Collection(collection).DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the underlying client.
func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

func orEmpty(filter bson.D) bson.D {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
