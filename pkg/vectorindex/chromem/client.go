// Package chromem provides the chromem-go implementation of the vector
// index.
//
// chromem-go is an embedded, pure-Go vector database. All memories share a
// single collection; patient isolation comes from the patient_id metadata
// filter on every query, not from structural partitioning.
package chromem

import (
	"context"
	"fmt"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/homecare-labs/caremem-go/pkg/vectorindex"
)

// Client implements vectorindex.Index using chromem-go.
type Client struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
}

// Config contains configuration for creating a chromem index.
type Config struct {
	// CollectionName is the name of the shared collection.
	CollectionName string

	// PersistDir is the directory for persistent storage. Empty means
	// a purely in-memory index (useful for tests).
	PersistDir string
}

// NewClient creates a new chromem index client.
func NewClient(cfg *Config) (*Client, error) {
	var db *chromemgo.DB
	var err error

	if cfg.PersistDir != "" {
		db, err = chromemgo.NewPersistentDB(cfg.PersistDir, false)
		if err != nil {
			return nil, fmt.Errorf("NewChromemClient: %w", err)
		}
	} else {
		db = chromemgo.NewDB()
	}

	// Embeddings are always provided by the caller, so no embedding
	// function is configured.
	collection, err := db.GetOrCreateCollection(cfg.CollectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("NewChromemClient: %w", err)
	}

	return &Client{
		db:         db,
		collection: collection,
	}, nil
}

// Add inserts an entry under the given ID.
func (c *Client) Add(ctx context.Context, id string, vector []float64, metadata map[string]string) error {
	doc := chromemgo.Document{
		ID:        id,
		Embedding: toFloat32(vector),
		Metadata:  metadata,
	}

	if err := c.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("Add: %w", err)
	}

	return nil
}

// Update replaces the entry's vector and metadata in place.
//
// chromem-go replaces any existing document with the same ID, so an update
// is an add under the existing key; no second entry is created.
func (c *Client) Update(ctx context.Context, id string, vector []float64, metadata map[string]string) error {
	doc := chromemgo.Document{
		ID:        id,
		Embedding: toFloat32(vector),
		Metadata:  metadata,
	}

	if err := c.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	return nil
}

// Delete removes the entry with the given ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	return nil
}

// Query returns up to k nearest entries matching the metadata filter,
// closest first.
//
// chromem-go rejects result counts larger than the collection, so k is
// clamped to the current document count.
func (c *Client) Query(ctx context.Context, vector []float64, k int, where map[string]string) ([]vectorindex.Hit, error) {
	count := c.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := c.collection.QueryEmbedding(ctx, toFloat32(vector), k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}

	hits := make([]vectorindex.Hit, 0, len(results))
	for _, result := range results {
		// chromem reports cosine similarity in [-1,1]; expose it as a
		// bounded distance in [0,2] so relevance scoring stays uniform
		// across index backends.
		hits = append(hits, vectorindex.Hit{
			ID:       result.ID,
			Distance: 1.0 - float64(result.Similarity),
			Metadata: result.Metadata,
		})
	}

	return hits, nil
}

// Close closes the index.
//
// chromem-go keeps its state in memory (flushing persistently on write when
// configured), so there is nothing to release.
func (c *Client) Close() error {
	return nil
}

// toFloat32 converts an embedding to chromem's vector representation.
func toFloat32(vector []float64) []float32 {
	converted := make([]float32, len(vector))
	for i, v := range vector {
		converted[i] = float32(v)
	}
	return converted
}
