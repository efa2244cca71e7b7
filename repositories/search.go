//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"

	"github.com/blugelabs/bluge"
)

type ISearchIndex interface {
	Index(message StoredMessage) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Close() error
}

// SearchHit is a single full-text match over the message history.
type SearchHit struct {
	ID     string  `json:"id"`
	Author string  `json:"author"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// SearchIndex maintains a Bluge full-text index alongside the Badger store.
// Indexing is best effort: the relay never blocks or fails on index errors.
type SearchIndex struct {
	writer *bluge.Writer
}

func NewSearchIndex(path string) (*SearchIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open bluge index: %w", err)
	}
	return &SearchIndex{writer: writer}, nil
}

func (s *SearchIndex) Index(message StoredMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewKeywordField("author", message.Author).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.At))

	return s.writer.Update(doc.ID(), doc)
}

func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	matchQuery := bluge.NewMatchQuery(query).SetField("text")
	request := bluge.NewTopNSearch(limit, matchQuery)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		hit := SearchHit{Score: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "author":
				hit.Author = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}
