package search

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ar-automation/reconciliation/internal/config"
	"github.com/elastic/go-elasticsearch/v8"
)

// NewElasticsearch builds an Elasticsearch client from configuration and
// verifies connectivity with an Info call before returning it.
func NewElasticsearch(logger *slog.Logger, cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(cfg.Addresses, ","),
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			// Development clusters run with self-signed certificates
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info request failed: %s", res.String())
	}

	logger.Info("Connected to Elasticsearch")

	return es, nil
}
