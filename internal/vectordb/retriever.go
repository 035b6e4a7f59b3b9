package vectordb

import (
	"context"

	"document-gpt/internal/conversation"
)

// Retriever adapts a Store to the conversation engine's retrieval
// contract.
type Retriever struct {
	store *Store
}

func NewRetriever(store *Store) Retriever {
	return Retriever{store: store}
}

func (r Retriever) Search(ctx context.Context, query string, k int) ([]conversation.Passage, error) {
	results, err := r.store.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]conversation.Passage, 0, len(results))
	for _, res := range results {
		passages = append(passages, conversation.Passage{
			Content:  res.Content,
			Metadata: res.Metadata,
		})
	}
	return passages, nil
}
