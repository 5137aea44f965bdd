package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/config"
	"example.com/backstage/services/ingest/internal/models"
)

// ElasticIndexer keeps a searchable projection of the record set in Elasticsearch
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticIndexer creates a client for the configured cluster
func NewElasticIndexer(cfg config.ElasticConfig) (*ElasticIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticIndexer{
		client: client,
		index:  config.FormatIndex(cfg),
	}, nil
}

// Name identifies the publisher in logs and metrics
func (e *ElasticIndexer) Name() string {
	return "elasticsearch"
}

// EnsureIndex creates the records index when missing
func (e *ElasticIndexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.client)
	if err != nil {
		return errors.Wrapf(err, "error checking if index %s exists", e.index)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	log.Info().Str("index", e.index).Msg("Creating index")
	res, err = esapi.IndicesCreateRequest{Index: e.index}.Do(ctx, e.client)
	if err != nil {
		return errors.Wrapf(err, "error creating index %s", e.index)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("error creating index %s: %s", e.index, res.String())
	}
	return nil
}

// Publish applies a record event to the index
func (e *ElasticIndexer) Publish(ctx context.Context, event models.RecordEvent) error {
	switch event.Type {
	case models.EventRecordIngested, models.EventRecordProcessed:
		if event.Record == nil {
			return errors.Errorf("%s event for %s carries no record", event.Type, event.RecordID)
		}
		return e.indexRecord(ctx, *event.Record)
	case models.EventRecordDeleted:
		return e.deleteRecord(ctx, event.RecordID)
	default:
		return errors.Errorf("unknown event type %q", event.Type)
	}
}

// Close is a no-op; the client holds no long-lived resources
func (e *ElasticIndexer) Close() error {
	return nil
}

func (e *ElasticIndexer) indexRecord(ctx context.Context, record models.Record) error {
	doc, err := json.Marshal(RecordDocument(record))
	if err != nil {
		return errors.Wrap(err, "failed to marshal record document")
	}

	res, err := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(doc),
	}.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("Elasticsearch index error: %s", res.String())
	}

	log.Debug().Str("id", record.ID).Msg("record indexed")
	return nil
}

func (e *ElasticIndexer) deleteRecord(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id,
	}.Do(ctx, e.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// already gone is fine
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.Errorf("Elasticsearch delete error: %s", res.String())
	}
	return nil
}

// RecordDocument flattens a record into the indexed document.
// Payload and metadata keys are prefixed so they cannot clash with record fields.
func RecordDocument(record models.Record) map[string]any {
	doc := map[string]any{
		"id":        record.ID,
		"timestamp": record.Timestamp,
		"processed": record.Processed,
	}
	if record.ProcessingTimestamp != nil {
		doc["processing_timestamp"] = *record.ProcessingTimestamp
	}
	if record.ProcessingResult != nil {
		doc["processing_status"] = record.ProcessingResult.Status
	}
	for k, v := range record.Data {
		doc["data:"+k] = v
	}
	for k, v := range record.Metadata {
		doc["metadata:"+k] = v
	}
	return doc
}
