package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/semantic"
	"github.com/radulovicigor/CBCGchatbot/internal/storage/mocks"
)

var testNow = time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)

type stubSearcher struct {
	results []semantic.Result
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ string, k int) ([]semantic.Result, error) {
	s.gotK = k
	return s.results, s.err
}

func corpus() []document.Document {
	return []document.Document{
		{ID: "faq1", Title: "SEPA Q&A - Šta je SEPA?", Content: "SEPA je jedinstvena platna oblast za euro plaćanja.", Source: "pdf:SEPA_QnA", Page: document.IntPtr(1), Type: document.TypeFAQ},
		{ID: "faq2", Title: "SEPA Q&A - IBAN", Content: "IBAN je međunarodni broj računa.", Source: "pdf:SEPA_QnA", Page: document.IntPtr(5), Type: document.TypeFAQ},
		{ID: "news1", Title: "Crna Gora pristupila SEPA", Content: "Crna Gora je postala dio SEPA platne oblasti.", Source: "cbcg.me", URL: "https://www.cbcg.me/n1", PublishedAt: "2025-10-01", Type: document.TypeNews},
		{ID: "news2", Title: "Stara vijest o kamatama", Content: "Kamatne stope su stabilne.", Source: "cbcg.me", URL: "https://www.cbcg.me/n2", PublishedAt: "2023-01-01", Type: document.TypeNews},
	}
}

func newRetriever(t *testing.T, docs []document.Document, listErr error, searcher SemanticSearcher) *HybridRetriever {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(docs, listErr).AnyTimes()

	facts, err := DefaultPinnedFacts()
	require.NoError(t, err)

	return NewHybridRetriever(store, searcher, facts, HybridOptions{Now: func() time.Time { return testNow }})
}

func ids(docs []document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestHybridRetriever_EmptyStoreServesFallback(t *testing.T) {
	r := newRetriever(t, []document.Document{}, nil, nil)

	docs, err := r.Retrieve(context.Background(), "Šta je SEPA?", 8)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "pdf:SEPA_QnA", docs[0].Source)
	assert.Equal(t, FallbackDocuments(), docs)
}

func TestHybridRetriever_StoreErrorServesFallback(t *testing.T) {
	r := newRetriever(t, nil, errors.New("disk gone"), nil)

	docs, err := r.Retrieve(context.Background(), "Šta je SEPA?", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback-sepa-1"}, ids(docs))
}

func TestHybridRetriever_FusesBothRankings(t *testing.T) {
	c := corpus()
	searcher := &stubSearcher{results: []semantic.Result{{Doc: c[0]}, {Doc: c[1]}}}
	r := newRetriever(t, c, nil, searcher)

	docs, err := r.Retrieve(context.Background(), "SEPA", 3)
	require.NoError(t, err)
	assert.Equal(t, 6, searcher.gotK, "each ranking is asked for 2k candidates")
	require.NotEmpty(t, docs)
	assert.LessOrEqual(t, len(docs), 3)
	// faq1 is second lexically and first semantically, beating news1 which only ranks lexically
	assert.Equal(t, "faq1", docs[0].ID)
}

func TestHybridRetriever_SemanticFailureDegradesToLexical(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("index not loaded")}
	r := newRetriever(t, corpus(), nil, searcher)

	docs, err := r.Retrieve(context.Background(), "IBAN broj računa", 8)
	require.NoError(t, err)
	assert.Contains(t, ids(docs), "faq2")
}

func TestHybridRetriever_RecencyWindow(t *testing.T) {
	t.Run("keeps only recent dated documents", func(t *testing.T) {
		r := newRetriever(t, corpus(), nil, nil)

		docs, err := r.Retrieve(context.Background(), "Šta je trenutno sa SEPA?", 8)
		require.NoError(t, err)
		assert.Equal(t, []string{"news1"}, ids(docs))
	})

	t.Run("nothing recent yields empty result", func(t *testing.T) {
		old := []document.Document{corpus()[0], corpus()[3]}
		r := newRetriever(t, old, nil, nil)

		docs, err := r.Retrieve(context.Background(), "Koje su najnovije vijesti o SEPA i kamatama?", 8)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})
}

func TestHybridRetriever_PinnedFactsFirst(t *testing.T) {
	r := newRetriever(t, corpus(), nil, nil)

	docs, err := r.Retrieve(context.Background(), "Kada je osnovana CBCG i koja je valuta u SEPA?", 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(docs), 2)
	assert.Equal(t, "pinned-organization", docs[0].ID)
	assert.Equal(t, "pinned-currency", docs[1].ID)
}

func TestHybridRetriever_TruncatesToK(t *testing.T) {
	r := newRetriever(t, corpus(), nil, nil)

	docs, err := r.Retrieve(context.Background(), "SEPA", 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestHybridRetriever_DefaultK(t *testing.T) {
	searcher := &stubSearcher{}
	r := newRetriever(t, corpus(), nil, searcher)

	_, err := r.Retrieve(context.Background(), "SEPA", 0)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultK, searcher.gotK)
}
