package policy

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecat/tidecat/internal/domain/repository"
)

// Metastore is the single top-level catalog resource.
type Metastore struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedAt int64     `gorm:"autoCreateTime"`
}

// MetastoreStore ensures and serves the metastore singleton. The id is
// resolved from the database once and cached for the process lifetime.
type MetastoreStore struct {
	db *gorm.DB

	mu sync.Mutex
	id uuid.UUID
}

// NewMetastoreStore returns a metastore store backed by db.
func NewMetastoreStore(db *gorm.DB) *MetastoreStore {
	return &MetastoreStore{db: db}
}

var _ repository.MetastoreProvider = (*MetastoreStore)(nil)

// MetastoreID returns the id of the metastore, creating the singleton row on
// first use.
func (s *MetastoreStore) MetastoreID(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != uuid.Nil {
		return s.id, nil
	}

	var metastore Metastore
	err := s.db.WithContext(ctx).
		Attrs(Metastore{ID: uuid.New(), Name: "metastore"}).
		FirstOrCreate(&metastore, Metastore{Name: "metastore"}).Error
	if err != nil {
		return uuid.Nil, err
	}

	s.id = metastore.ID
	return s.id, nil
}
