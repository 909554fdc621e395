package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/databounty/warden/pkg/dataaccess/monitoring"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoStoreName   = "mongo_store"
	configCollection = "config"

	// configDocumentID is the fixed _id of the single config document. The
	// store keeps the whole-document-replace semantics of the file store; it
	// just holds the document in Mongo instead of on disk.
	configDocumentID = "config"
)

type mongoStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client

	// mut serializes every load-mutate-save sequence within this process.
	mut sync.Mutex
}

// NewMongoStore creates a config store backed by a single document in a Mongo
// collection. Every save is a full document replace (upsert).
func NewMongoStore(logger *slog.Logger) ConfigStore {
	l := logger.With(slog.String(logging.KeyDal, mongoStoreName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &mongoStore{
		l:      l,
		client: MongoDB,
	}
}

func (s *mongoStore) Load(ctx context.Context) (*entities.ConfigDocument, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.load(ctx)
}

func (s *mongoStore) load(ctx context.Context) (*entities.ConfigDocument, error) {
	collection := s.client.Database(mongoDatabase).Collection(configCollection)

	monitoring.StoreTotalRequests.WithLabelValues(mongoStoreName, "load").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(mongoStoreName, "load"))
	defer t.ObserveDuration()

	doc := entities.NewConfigDocument()
	err := collection.FindOne(ctx, bson.M{"_id": configDocumentID}).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Nothing persisted yet.
			return entities.NewConfigDocument(), nil
		}
		return nil, fmt.Errorf("error getting config document: %w", err)
	}
	return doc, nil
}

func (s *mongoStore) Save(ctx context.Context, doc *entities.ConfigDocument) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.save(ctx, doc)
}

func (s *mongoStore) save(ctx context.Context, doc *entities.ConfigDocument) error {
	collection := s.client.Database(mongoDatabase).Collection(configCollection)

	monitoring.StoreTotalRequests.WithLabelValues(mongoStoreName, "save").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(mongoStoreName, "save"))
	defer t.ObserveDuration()

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": configDocumentID}, doc, opts); err != nil {
		return fmt.Errorf("error replacing config document: %w", err)
	}
	return nil
}

func (s *mongoStore) Update(ctx context.Context, mutate func(doc *entities.ConfigDocument) error) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	monitoring.StoreTotalRequests.WithLabelValues(mongoStoreName, "update").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(mongoStoreName, "update"))
	defer t.ObserveDuration()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	if err := mutate(doc); err != nil {
		return err
	}

	return s.save(ctx, doc)
}
