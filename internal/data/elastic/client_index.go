// Package elastic implements the consolidated-client search index on
// Elasticsearch. Consumers read through a stable alias while each
// consolidation run publishes a fresh generation index and swaps the alias
// over atomically, so readers never observe a missing or half-built index.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/domain/match"
)

// ClientIndex wraps the Elasticsearch client with the operations the
// reconciliation pipeline needs: generation publishing for the consolidator
// and relevance queries for the identity resolver and the search page.
type ClientIndex struct {
	es     *elasticsearch.Client
	alias  string
	logger *slog.Logger
	now    func() time.Time
}

// NewClientIndex creates a ClientIndex publishing under the given alias
func NewClientIndex(logger *slog.Logger, es *elasticsearch.Client, alias string) *ClientIndex {
	return &ClientIndex{
		es:     es,
		alias:  alias,
		logger: logger,
		now:    time.Now,
	}
}

// Alias returns the alias consumers query through
func (i *ClientIndex) Alias() string {
	return i.alias
}

// Exists reports whether the named index is present
func (i *ClientIndex) Exists(ctx context.Context, name string) (bool, error) {
	res, err := i.es.Indices.Exists([]string{name}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %q: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status checking index %q: %s", name, res.Status())
	}
}

// Create creates an empty index with default dynamic mappings
func (i *ClientIndex) Create(ctx context.Context, name string) error {
	res, err := i.es.Indices.Create(name, i.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create index %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to create index %q: %s", name, res.String())
	}
	return nil
}

// Delete removes the named index
func (i *ClientIndex) Delete(ctx context.Context, name string) error {
	res, err := i.es.Indices.Delete([]string{name}, i.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete index %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete index %q: %s", name, res.String())
	}
	return nil
}

// BulkIndex writes all documents into the named index in a single bulk request
func (i *ClientIndex) BulkIndex(ctx context.Context, name string, docs []client.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var body bytes.Buffer
	for _, doc := range docs {
		meta := map[string]map[string]string{"index": {"_index": name, "_id": doc.ID}}
		if err := json.NewEncoder(&body).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := json.NewEncoder(&body).Encode(doc.Fields); err != nil {
			return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}

	res, err := i.es.Bulk(bytes.NewReader(body.Bytes()), i.es.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk index into %q failed: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index into %q failed: %s", name, res.String())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulkRes.Errors {
		return fmt.Errorf("bulk index into %q reported item errors", name)
	}

	return nil
}

// Refresh makes the named index immediately queryable
func (i *ClientIndex) Refresh(ctx context.Context, name string) error {
	res, err := i.es.Indices.Refresh(
		i.es.Indices.Refresh.WithIndex(name),
		i.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to refresh index %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to refresh index %q: %s", name, res.String())
	}
	return nil
}

// Publish replaces the index generation behind the alias with the given
// documents: create a new generation, bulk-index, refresh, repoint the alias,
// then drop superseded generations. The alias flip is the only visible step.
func (i *ClientIndex) Publish(ctx context.Context, docs []client.SearchDocument) error {
	generation := fmt.Sprintf("%s-%d", i.alias, i.now().UnixNano())

	if err := i.Create(ctx, generation); err != nil {
		return err
	}
	if err := i.BulkIndex(ctx, generation, docs); err != nil {
		return err
	}
	if err := i.Refresh(ctx, generation); err != nil {
		return err
	}
	if err := i.swapAlias(ctx, generation); err != nil {
		return err
	}
	if err := i.deleteOldGenerations(ctx, generation); err != nil {
		// The new generation is already live; stale indices only cost disk
		i.logger.Warn("Failed to delete superseded index generations", "error", err)
	}

	i.logger.Info("Published client index generation", "index", generation, "documents", len(docs))
	return nil
}

// swapAlias atomically points the alias at the new generation
func (i *ClientIndex) swapAlias(ctx context.Context, generation string) error {
	actions := map[string]interface{}{
		"actions": []interface{}{
			map[string]interface{}{"remove": map[string]interface{}{
				"index":      i.alias + "-*",
				"alias":      i.alias,
				"must_exist": false,
			}},
			map[string]interface{}{"add": map[string]interface{}{
				"index": generation,
				"alias": i.alias,
			}},
		},
	}

	body, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to encode alias actions: %w", err)
	}

	res, err := i.es.Indices.UpdateAliases(bytes.NewReader(body), i.es.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to update alias %q: %w", i.alias, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to update alias %q: %s", i.alias, res.String())
	}
	return nil
}

// deleteOldGenerations removes every generation index except the current one
func (i *ClientIndex) deleteOldGenerations(ctx context.Context, current string) error {
	res, err := i.es.Indices.Get([]string{i.alias + "-*"}, i.es.Indices.Get.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to list index generations: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("failed to list index generations: %s", res.String())
	}

	var indices map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return fmt.Errorf("failed to decode index list: %w", err)
	}

	for name := range indices {
		if name == current {
			continue
		}
		if err := i.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Search runs the multi-field relevance query the identity resolver depends
// on: best-fields ranking over all fields, at least one term matching,
// top `size` hits with their scores.
func (i *ClientIndex) Search(ctx context.Context, phrase string, size int) ([]match.Hit, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":                phrase,
				"fields":               []string{"*"},
				"type":                 "best_fields",
				"minimum_should_match": "1",
			},
		},
		"size": size,
	}

	hits, err := i.search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]match.Hit, 0, len(hits))
	for _, h := range hits {
		score := 0.0
		if h.Score != nil {
			score = *h.Score
		}
		results = append(results, match.Hit{ID: h.ID, Score: score})
	}
	return results, nil
}

// Documents runs either a multi-match query (non-empty phrase) or match-all
// (empty phrase) and returns the raw document sources for display.
func (i *ClientIndex) Documents(ctx context.Context, phrase string, size int) ([]map[string]interface{}, error) {
	var queryClause map[string]interface{}
	if phrase == "" {
		queryClause = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		queryClause = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  phrase,
				"fields": []string{"*"},
				"type":   "best_fields",
			},
		}
	}

	hits, err := i.search(ctx, map[string]interface{}{"query": queryClause, "size": size})
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

// Count returns the number of documents behind the alias
func (i *ClientIndex) Count(ctx context.Context) (int64, error) {
	res, err := i.es.Count(i.es.Count.WithIndex(i.alias), i.es.Count.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("failed to count documents: %s", res.String())
	}

	var countRes struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countRes); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return countRes.Count, nil
}

type rawHit struct {
	ID     string                 `json:"_id"`
	Score  *float64               `json:"_score"`
	Source map[string]interface{} `json:"_source"`
}

func (i *ClientIndex) search(ctx context.Context, query map[string]interface{}) ([]rawHit, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.alias),
		i.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search against %q failed: %w", i.alias, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search against %q failed: %s", i.alias, res.String())
	}

	var searchRes struct {
		Hits struct {
			Hits []rawHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchRes); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return searchRes.Hits.Hits, nil
}

// ParseClientID converts a document id back into a client id
func ParseClientID(id string) (int64, error) {
	clientID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("document id %q is not a client id: %w", id, err)
	}
	return clientID, nil
}
