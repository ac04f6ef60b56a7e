package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/models"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newFakeES(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*Index, *[]recorded) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recorded
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{r.Method, r.URL.Path, string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		respond(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewIndex(client, "", logger.NewTestLogger(t)), &calls
}

func TestIndex_IndexAndDelete(t *testing.T) {
	idx, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = io.WriteString(w, `{"result": "ok"}`)
	})

	require.NoError(t, idx.Index(context.Background(), models.Application{ID: "app-1", CompanyName: "Doha Trading"}))
	require.NoError(t, idx.Delete(context.Background(), "app-1"))

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Equal(t, "/applications/_doc/app-1", (*calls)[0].path)
	assert.Contains(t, (*calls)[0].body, `"companyName":"Doha Trading"`)
	assert.Equal(t, http.MethodDelete, (*calls)[1].method)
}

func TestIndex_ErrorStatus(t *testing.T) {
	idx, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": "boom"}`)
	})

	err := idx.Index(context.Background(), models.Application{ID: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))

	_, err = idx.Search(context.Background(), "x", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
}

func TestSearch(t *testing.T) {
	idx, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits": {"total": {"value": 2}, "hits": [
			{"_id": "a", "_source": {"id": "a", "companyName": "Doha Trading", "status": "pending"}},
			{"_id": "b", "_source": {"id": "b", "companyName": "Doha Foods", "status": "pending"}}
		]}}`)
	})

	apps, err := idx.Search(context.Background(), "doha", models.StatusPending)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "Doha Trading", apps[0].CompanyName)

	require.Len(t, *calls, 1)
	assert.True(t, strings.HasPrefix((*calls)[0].path, "/applications/_search"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &body))
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Contains(t, boolQuery, "filter")
	assert.Contains(t, (*calls)[0].body, `"multi_match"`)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("  ", "")
	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotContains(t, boolQuery, "filter")
	must := boolQuery["must"].([]interface{})
	assert.Contains(t, must[0], "match_all")

	q = BuildQuery("retail", models.StatusApproved)
	boolQuery = q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})
	term := filter[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "approved", term["status"])
	mm := boolQuery["must"].([]interface{})[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "retail", mm["query"])
}
