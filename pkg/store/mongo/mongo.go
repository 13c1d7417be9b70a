// Package mongo implements store.DocumentStore on MongoDB. Each diagram is one
// document in the diagrams collection with the diagram id as _id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the collection holding raw diagram documents.
const CollectionName = "diagrams"

type DocumentDBStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewDocumentDBStorageParams configures the Mongo connection.
type NewDocumentDBStorageParams struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
}

// NewDocumentDBStorage connects to MongoDB and verifies the connection.
func NewDocumentDBStorage(ctx context.Context, params NewDocumentDBStorageParams) (*DocumentDBStorage, error) {
	if params.URL == "" {
		return nil, fmt.Errorf("missing mongo url")
	}
	if params.Database == "" {
		return nil, fmt.Errorf("missing mongo database name")
	}
	timeout := params.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(params.URL).SetConnectTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return newDocumentDBStorage(client, client.Database(params.Database).Collection(CollectionName)), nil
}

func newDocumentDBStorage(client *mongo.Client, collection *mongo.Collection) *DocumentDBStorage {
	return &DocumentDBStorage{client: client, collection: collection}
}

func (s *DocumentDBStorage) GetDocument(ctx context.Context, id string) (*common.Document, error) {
	var doc common.Document
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	doc.Normalize()
	return &doc, nil
}

// DiagramIDs streams the _id of every document, in natural order.
func (s *DocumentDBStorage) DiagramIDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
		cur, err := s.collection.Find(ctx, bson.D{}, opts)
		if err != nil {
			yield("", fmt.Errorf("failed to open cursor: %w", err))
			return
		}
		defer cur.Close(context.Background())

		for cur.Next(ctx) {
			var row struct {
				ID string `bson:"_id"`
			}
			if err := cur.Decode(&row); err != nil {
				yield("", fmt.Errorf("failed to decode id: %w", err))
				return
			}
			if !yield(row.ID, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield("", err)
		}
	}
}

func (s *DocumentDBStorage) CountDocuments(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *DocumentDBStorage) UpsertDocument(ctx context.Context, doc *common.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document without id")
	}
	_, err := s.collection.ReplaceOne(
		ctx,
		bson.D{{Key: "_id", Value: doc.ID}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *DocumentDBStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *DocumentDBStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
