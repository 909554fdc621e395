package dataaccess

import (
	"context"

	"github.com/databounty/warden/pkg/entities"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool. It is only set when
// the bot is configured with a Mongo backed config store.
var MongoDB *mongo.Client

const mongoDatabase = "warden"

// ConfigStore is the single storage primitive of the bot. The whole document
// is read and rewritten on every mutation; there are no partial updates.
type ConfigStore interface {
	// Load returns the persisted document, or an empty document when nothing
	// has been persisted yet. A missing document is not an error.
	Load(ctx context.Context) (*entities.ConfigDocument, error)

	// Save replaces the entire persisted document.
	Save(ctx context.Context, doc *entities.ConfigDocument) error

	// Update runs a load-mutate-save sequence as a single serialized
	// transition. All concurrent mutations are queued behind a store level
	// lock, so two handlers can never interleave their load and save and
	// silently drop each other's writes.
	Update(ctx context.Context, mutate func(doc *entities.ConfigDocument) error) error
}
