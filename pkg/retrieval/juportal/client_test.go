package juportal

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-lawyer-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, log.New(io.Discard, "", 0))
}

func TestSearchParsesResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "faillissement", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"ecli": "ECLI:BE:CASS:2023:ARR.123",
					"title": "Cass. 12 januari 2023",
					"summary": "Arrest inzake faillissement.",
					"court": "CASS",
					"decision_date": "2023-01-12",
					"url": "https://juportal.be/content/ECLI:BE:CASS:2023:ARR.123"
				},
				{
					"ecli": "ECLI:BE:GHCC:2022:ARR.045",
					"title": "GwH 2022/045",
					"summary": "Arrest van het Grondwettelijk Hof.",
					"court": "GHCC",
					"decision_date": "not-a-date"
				}
			]
		}`))
	})

	items, err := client.Search(context.Background(), SearchCriteria{Keywords: "faillissement"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "ECLI:BE:CASS:2023:ARR.123", first.Id)
	assert.Equal(t, retrieval.SourceExternal, first.Source)
	assert.Equal(t, "Cass. 12 januari 2023", first.Title)
	assert.False(t, first.HasScore)
	require.NotNil(t, first.External)
	assert.Equal(t, "CASS", first.External.Court)
	require.NotNil(t, first.External.Date)
	assert.Equal(t, 2023, first.External.Date.Year())

	// Unparseable date is dropped, the item survives.
	second := items[1]
	require.NotNil(t, second.External)
	assert.Nil(t, second.External.Date)
}

func TestSearchCriteriaForwardedAsQueryParams(t *testing.T) {
	from := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "CASS", q.Get("court"))
		assert.Equal(t, "ECLI:BE:CASS:2020:ARR.001", q.Get("ecli"))
		assert.Equal(t, "2020-06-01", q.Get("date_from"))
		assert.Equal(t, "2021-06-01", q.Get("date_to"))
		assert.Equal(t, "5", q.Get("limit"))
		w.Write([]byte(`{"results": []}`))
	})

	items, err := client.Search(context.Background(), SearchCriteria{
		Court:    "CASS",
		Ecli:     "ECLI:BE:CASS:2020:ARR.001",
		DateFrom: &from,
		DateTo:   &to,
		Limit:    5,
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchMalformedPayloadReturnsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	items, err := client.Search(context.Background(), SearchCriteria{Keywords: "x"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchUpstreamErrorReturnsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	items, err := client.Search(context.Background(), SearchCriteria{Keywords: "x"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchResultWithoutEcliIsSkipped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"title": "no id"}, {"ecli": "ECLI:BE:CASS:2023:ARR.999", "summary": "ok"}]}`))
	})

	items, err := client.Search(context.Background(), SearchCriteria{Keywords: "x"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ECLI:BE:CASS:2023:ARR.999", items[0].Id)
}

func TestSearchContextCancellationPropagates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"results": []}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, SearchCriteria{Keywords: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
