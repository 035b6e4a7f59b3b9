package vectordb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// Store wraps a chromem-go database holding the single vector collection
// this deployment indexes into.
type Store struct {
	db        *chromem.DB
	name      string
	embedFunc chromem.EmbeddingFunc
}

const compress = false

// NewStore opens (or creates) the vector database. inMemory is used by
// tests; the server always runs with a persistent store.
func NewStore(dbPath, collectionName string, inMemory bool, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector database: %v", err)
		}
	}
	return &Store{db: db, name: collectionName, embedFunc: embedFunc}, nil
}

func (s *Store) collection() (*chromem.Collection, error) {
	c, err := s.db.GetOrCreateCollection(s.name, nil, s.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return c, nil
}

// Add upserts documents into the collection. Documents reusing an ID
// replace the previous entry, which is what makes re-indexing the same
// file idempotent.
func (s *Store) Add(ctx context.Context, docs []chromem.Document) error {
	c, err := s.collection()
	if err != nil {
		return err
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search returns the top-k most similar documents for the query. k is
// clamped to the collection size; an empty collection yields no results
// rather than an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]chromem.Result, error) {
	c, err := s.collection()
	if err != nil {
		return nil, err
	}
	count := c.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := c.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	return results, nil
}

// Clear drops the whole collection. Dropping a collection that does not
// exist is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}
