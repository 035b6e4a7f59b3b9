package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-gpt/internal/parser"
)

// Embedder generates an embedding vector for a piece of text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is the vector collection the indexer writes into.
type Index interface {
	Add(ctx context.Context, docs []chromem.Document) error
	Clear(ctx context.Context) error
}

// Indexer turns uploaded documents into embedded chunks in the vector
// index.
type Indexer struct {
	embedder     Embedder
	index        Index
	chunkSize    int
	chunkOverlap int
}

func New(embedder Embedder, index Index, chunkSize, chunkOverlap int) *Indexer {
	return &Indexer{
		embedder:     embedder,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IndexFile parses, chunks, embeds and stores exactly the given file.
// Chunk IDs are derived from the file name, so re-uploading a file
// replaces its previous chunks instead of duplicating them. The uploaded
// file is removed afterwards, on failure as well as on success; there is
// no rollback of chunks already written.
func (ix *Indexer) IndexFile(ctx context.Context, filePath string) error {
	defer func() {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", filePath).Msg("could not remove uploaded file")
		}
	}()

	chunks, err := parser.Parse(filePath, ix.chunkSize, ix.chunkOverlap)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	source := filepath.Base(filePath)
	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := ix.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk: %w", err)
		}
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-p%d-c%d", source, chunk.PageNumber, chunk.ChunkID),
			Content: chunk.Content,
			Metadata: map[string]string{
				"source": source,
				"page":   strconv.Itoa(chunk.PageNumber),
				"chunk":  strconv.Itoa(chunk.ChunkID),
			},
			Embedding: embedding,
		})
	}

	if err := ix.index.Add(ctx, docs); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	log.Info().Str("file", source).Int("chunks", len(docs)).Msg("document indexed")
	return nil
}

// Clear drops the whole vector collection. This is a full reset; there
// is no per-document deletion.
func (ix *Indexer) Clear(ctx context.Context) error {
	return ix.index.Clear(ctx)
}
