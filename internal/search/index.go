// Package search mirrors applications into Elasticsearch and queries them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
)

const (
	DefaultIndex = "applications"
	maxResults   = 50
)

var searchFields = []string{"companyName^3", "contactPerson^2", "email", "industry", "region"}

type Index struct {
	client *elasticsearch.Client
	name   string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, name string, log logger.Logger) *Index {
	if name == "" {
		name = DefaultIndex
	}
	return &Index{
		client: client,
		name:   name,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": name}),
	}
}

func (i *Index) Name() string { return i.name }

// Index writes app as the document with the application's id.
func (i *Index) Index(ctx context.Context, app models.Application) error {
	body, err := json.Marshal(app)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: app.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchQueryFailedError(fmt.Errorf("index %s: %s", app.ID, res.Status()))
	}
	i.logger.Debug("application indexed", map[string]interface{}{"applicationId": app.ID})
	return nil
}

// Delete removes the document. A missing document is not an error.
func (i *Index) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.name, DocumentID: id}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return errors.NewSearchQueryFailedError(fmt.Errorf("delete %s: %s", id, res.Status()))
	}
	return nil
}

// Search runs a multi_match over the text fields, optionally filtered to
// one status. An empty query matches everything.
func (i *Index) Search(ctx context.Context, query string, status models.Status) ([]models.Application, error) {
	body, err := json.Marshal(BuildQuery(query, status))
	if err != nil {
		return nil, err
	}
	size := maxResults
	req := esapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("search: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Application `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	apps := make([]models.Application, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		apps = append(apps, h.Source)
	}
	i.logger.Debug("search executed", map[string]interface{}{
		"query":   query,
		"status":  status,
		"results": len(apps),
	})
	return apps, nil
}

// BuildQuery returns the request body for Search.
func BuildQuery(query string, status models.Status) map[string]interface{} {
	must := []interface{}{}
	if q := strings.TrimSpace(query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": searchFields,
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if status != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"status": string(status)}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}}},
	}
}
