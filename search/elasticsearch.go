package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"
)

// Config holds the Elasticsearch connection settings.
type Config struct {
	URL      string
	Username string
	Password string
	Prefix   string
}

// Client wraps the Elasticsearch client with the small surface the
// indexer needs.
type Client struct {
	es     *elasticsearch.Client
	prefix string
}

// NewClient connects to Elasticsearch and verifies the connection.
func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch returned error: %s", res.String())
	}

	log.Info().Msg("Successfully connected to Elasticsearch")
	return &Client{es: es, prefix: cfg.Prefix}, nil
}

// FormatIndex adds the environment prefix to an index name.
func (c *Client) FormatIndex(indexName string) string {
	if c.prefix == "" {
		return indexName
	}
	return c.prefix + "-" + indexName
}

// EnsureIndices creates the indices the indexer writes to if they do
// not exist yet.
func (c *Client) EnsureIndices() error {
	indices := []string{
		ReservationEventsIndex,
	}

	for _, index := range indices {
		formatted := c.FormatIndex(index)

		exists, err := c.indexExists(formatted)
		if err != nil {
			return err
		}

		if !exists {
			log.Info().Msgf("Creating index %s", formatted)
			if err := c.createIndex(formatted); err != nil {
				return err
			}
		}
	}

	return nil
}

// IndexDocument upserts one document. Writing the same id twice
// overwrites, which keeps redelivered events idempotent.
func (c *Client) IndexDocument(ctx context.Context, index, documentID string, body []byte) error {
	res, err := c.es.Index(
		c.FormatIndex(index),
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(documentID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", documentID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index document %s: %s", documentID, res.String())
	}

	return nil
}

func (c *Client) indexExists(index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index})
	if err != nil {
		return false, fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

func (c *Client) createIndex(index string) error {
	res, err := c.es.Indices.Create(index)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	return nil
}
