package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/databounty/warden/pkg/dataaccess/monitoring"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

const fileStoreName = "file_store"

type fileStore struct {
	// l is the logger.
	l *slog.Logger

	// path is the location of the JSON document on disk.
	path string

	// mut serializes every load-mutate-save sequence.
	mut sync.Mutex
}

// NewFileStore creates a config store backed by a single JSON document on
// disk. Writes go to a temporary file in the same directory and are renamed
// into place, so a reader never observes a torn document.
func NewFileStore(path string, logger *slog.Logger) ConfigStore {
	l := logger.With(slog.String(logging.KeyDal, fileStoreName))

	return &fileStore{
		l:    l,
		path: path,
	}
}

func (s *fileStore) Load(ctx context.Context) (*entities.ConfigDocument, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.load()
}

func (s *fileStore) load() (*entities.ConfigDocument, error) {
	monitoring.StoreTotalRequests.WithLabelValues(fileStoreName, "load").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(fileStoreName, "load"))
	defer t.ObserveDuration()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No document has been persisted yet.
			return entities.NewConfigDocument(), nil
		}
		return nil, fmt.Errorf("error reading config document: %w", err)
	}

	doc := entities.NewConfigDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("error decoding config document: %w", err)
	}
	return doc, nil
}

func (s *fileStore) Save(ctx context.Context, doc *entities.ConfigDocument) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.save(doc)
}

func (s *fileStore) save(doc *entities.ConfigDocument) error {
	monitoring.StoreTotalRequests.WithLabelValues(fileStoreName, "save").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(fileStoreName, "save"))
	defer t.ObserveDuration()

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding config document: %w", err)
	}

	// Write to a temporary file and rename it into place. The rename is the
	// commit point; a crash mid-write leaves the previous document intact.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing config document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error replacing config document: %w", err)
	}
	return nil
}

func (s *fileStore) Update(ctx context.Context, mutate func(doc *entities.ConfigDocument) error) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	monitoring.StoreTotalRequests.WithLabelValues(fileStoreName, "update").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(fileStoreName, "update"))
	defer t.ObserveDuration()

	doc, err := s.load()
	if err != nil {
		return err
	}

	if err := mutate(doc); err != nil {
		// The document on disk is untouched when the mutation fails.
		return err
	}

	return s.save(doc)
}
