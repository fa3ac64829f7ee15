package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/project-tktt/salary-stats/internal/domain"
)

const snapshotMapping = `{
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"run_id": {"type": "keyword"},
			"source": {"type": "keyword"},
			"term": {"type": "keyword"},
			"vacancies_found": {"type": "integer"},
			"vacancies_processed": {"type": "integer"},
			"average_salary": {"type": "integer"},
			"collected_at": {"type": "date"}
		}
	}
}`

// ElasticsearchIndexer indexes term snapshots into Elasticsearch
type ElasticsearchIndexer struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// NewElasticsearchIndexer creates a new Elasticsearch indexer and checks the connection
func NewElasticsearchIndexer(addresses []string, indexName string, logger *slog.Logger) (*ElasticsearchIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ElasticsearchIndexer{
		client:    client,
		indexName: indexName,
		logger:    logger.With("component", "elasticsearch"),
	}, nil
}

// BulkIndex indexes snapshots with a single bulk request
func (i *ElasticsearchIndexer) BulkIndex(ctx context.Context, snapshots []*domain.TermSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	body, err := bulkBody(i.indexName, snapshots)
	if err != nil {
		return err
	}

	res, err := i.client.Bulk(bytes.NewReader(body), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}

	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	if !bulkRes.Errors {
		return nil
	}

	var failed []string
	for _, item := range bulkRes.Items {
		if item.Index.Status >= 400 {
			i.logger.Error("bulk item failed",
				"id", item.Index.ID,
				"status", item.Index.Status,
				"type", item.Index.Error.Type,
				"reason", item.Index.Error.Reason,
			)
			failed = append(failed, item.Index.ID)
		}
	}

	return &BulkItemsError{IDs: failed}
}

// EnsureIndex creates the index with the snapshot mapping if it doesn't exist
func (i *ElasticsearchIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: i.indexName,
		Body:  strings.NewReader(snapshotMapping),
	}
	res, err = req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}

	return nil
}

// bulkBody renders the NDJSON body of a bulk index request
func bulkBody(indexName string, snapshots []*domain.TermSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range snapshots {
		meta := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    s.ID,
			},
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("marshal meta: %w", err)
		}
		buf.Write(metaBytes)
		buf.WriteByte('\n')

		docBytes, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot %s: %w", s.ID, err)
		}
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
