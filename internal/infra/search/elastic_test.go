package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	lastBody map[string]any
	status   int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	raw, _ := io.ReadAll(r.Body)
	f.lastBody = nil
	_ = json.Unmarshal(raw, &f.lastBody)

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
		return
	}
	_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"7"},{"_id":"3"}]}}`))
}

func newIndex(t *testing.T, fake *fakeES) *ElasticIndex {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticIndex(es, zap.NewNop())
}

func TestSearchReturnsHitsInScoreOrder(t *testing.T) {
	fake := &fakeES{}
	idx := newIndex(t, fake)

	ids, ok := idx.Search(context.Background(), Query{Text: "clening", ServiceTypeID: 2})
	require.True(t, ok)
	assert.Equal(t, []uint{7, 3}, ids)

	query := fake.lastBody["query"].(map[string]any)["bool"].(map[string]any)
	mm := query["must"].([]any)[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, []any{"name^3", "description"}, mm["fields"])
	assert.NotNil(t, query["filter"])
}

func TestSearchFailureDoesNotNarrow(t *testing.T) {
	idx := newIndex(t, &fakeES{status: http.StatusInternalServerError})

	ids, ok := idx.Search(context.Background(), Query{Text: "x"})
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestIndexAndDelete(t *testing.T) {
	fake := &fakeES{}
	idx := newIndex(t, fake)

	svc := &models.Service{ID: 4, Name: "Garden", Variations: []models.ServiceVariation{{Name: "Small", Price: 30}}}
	idx.IndexService(context.Background(), DocumentOf(svc))
	idx.DeleteService(context.Background(), 4)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "PUT /services/_doc/4", fake.requests[0])
	assert.Equal(t, "DELETE /services/_doc/4", fake.requests[1])
}

func TestDisabledIndex(t *testing.T) {
	idx := NewElasticIndex(nil, zap.NewNop())
	idx.IndexService(context.Background(), Document{ID: 1})
	idx.DeleteService(context.Background(), 1)
	_, ok := idx.Search(context.Background(), Query{Text: "x"})
	assert.False(t, ok)
}
