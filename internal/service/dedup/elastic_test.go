package dedup

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

	"github.com/ashwinyue/next-qbank/internal/model"
)

// fakeElastic 记录收到的请求并返回预设响应
type fakeElastic struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	exists   bool
	hits     []map[string]interface{}
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	// 客户端的产品校验请求不计入
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		_, _ = w.Write([]byte(`{"version":{"number":"8.16.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead:
		if f.exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasSuffix(r.URL.Path, "/_search"):
		resp := map[string]interface{}{"hits": map[string]interface{}{"hits": f.hits}}
		_ = json.NewEncoder(w).Encode(resp)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	default:
		_, _ = w.Write([]byte(`{"acknowledged":true,"result":"created"}`))
	}
}

func newFakeCorpus(t *testing.T, fake *fakeElastic) *ElasticCorpus {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{ts.URL}})
	require.NoError(t, err)
	return NewElasticCorpus(client, "qbank_problems", 20)
}

func TestElasticCorpus_Candidates(t *testing.T) {
	fake := &fakeElastic{hits: []map[string]interface{}{
		{"_id": "p1", "_source": map[string]interface{}{"content": "물의 화학식을 쓰시오."}},
		{"_id": "p2", "_source": map[string]interface{}{"content": "전혀 다른 문제"}},
	}}
	corpus := newFakeCorpus(t, fake)

	matches, err := New(DefaultConfig()).Scan(context.Background(), "물의 화학식을 쓰시오", "", corpus)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].ID)

	require.Len(t, fake.bodies, 1)
	assert.Contains(t, fake.bodies[0], "more_like_this")
	assert.Contains(t, fake.bodies[0], `"size":20`)
}

func TestElasticCorpus_EnsureIndex(t *testing.T) {
	fake := &fakeElastic{exists: false}
	corpus := newFakeCorpus(t, fake)

	require.NoError(t, corpus.EnsureIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /qbank_problems", "PUT /qbank_problems"}, fake.requests)

	fake = &fakeElastic{exists: true}
	corpus = newFakeCorpus(t, fake)
	require.NoError(t, corpus.EnsureIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /qbank_problems"}, fake.requests)
}

func TestElasticCorpus_IndexAndDelete(t *testing.T) {
	fake := &fakeElastic{}
	corpus := newFakeCorpus(t, fake)

	p := &model.Problem{ID: "p1", Content: "내용", Status: model.ProblemStatusApproved}
	require.NoError(t, corpus.IndexProblem(context.Background(), p))
	require.NoError(t, corpus.DeleteProblem(context.Background(), "missing"))

	require.Len(t, fake.requests, 2)
	assert.Equal(t, "PUT /qbank_problems/_doc/p1", fake.requests[0])
	assert.Contains(t, fake.bodies[0], `"status":"APPROVED"`)
	assert.Equal(t, "DELETE /qbank_problems/_doc/missing", fake.requests[1])
}
