package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carmarket/internal/pipeline"
	"carmarket/internal/query"
	"carmarket/pkg/contracts/domain"
)

func testServer(t *testing.T, snap *pipeline.Snapshot) *httptest.Server {
	t.Helper()
	store := pipeline.NewStore()
	if snap != nil {
		snap.Version = store.NextVersion()
		require.True(t, store.Publish(snap))
	}
	facade := query.New(store, nil)
	srv := httptest.NewServer(NewRouter(facade, nil))
	t.Cleanup(srv.Close)
	return srv
}

func testSnapshot() *pipeline.Snapshot {
	return &pipeline.Snapshot{
		RunID: "run-http",
		Models: []domain.EnrichedModel{
			{
				ModelRecord: domain.ModelRecord{Automaker: "Ford", Genmodel: "Focus", GenmodelID: "18_1"},
				Price:       &domain.PriceStats{Mean: 20000, Count: 1},
				Sales:       &domain.SalesStats{Total: 3300, Years: 3},
				Segment:     domain.SegmentMidRange,
			},
			{
				ModelRecord: domain.ModelRecord{Automaker: "BMW", Genmodel: "3 Series", GenmodelID: "5_1"},
				Segment:     domain.SegmentPremium,
			},
		},
		Shares: []domain.ManufacturerShare{{Automaker: "Ford", TotalSales: 3300, Share: 100, Models: 1}},
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestGetModels(t *testing.T) {
	srv := testServer(t, testSnapshot())

	t.Run("no filter returns all", func(t *testing.T) {
		var body struct {
			Success bool                   `json:"success"`
			Count   int                    `json:"count"`
			Models  []domain.EnrichedModel `json:"models"`
		}
		code := getJSON(t, srv.URL+"/api/market/models", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, body.Success)
		assert.Equal(t, 2, body.Count)
	})

	t.Run("manufacturer filter", func(t *testing.T) {
		var body struct {
			Count  int                    `json:"count"`
			Models []domain.EnrichedModel `json:"models"`
		}
		code := getJSON(t, srv.URL+"/api/market/models?automaker=Ford", &body)
		assert.Equal(t, http.StatusOK, code)
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "Focus", body.Models[0].Genmodel)
	})

	t.Run("absent manufacturer yields empty result", func(t *testing.T) {
		var body struct {
			Count int `json:"count"`
		}
		code := getJSON(t, srv.URL+"/api/market/models?automaker=Lada", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Zero(t, body.Count)
	})
}

func TestGetSummary(t *testing.T) {
	srv := testServer(t, testSnapshot())

	t.Run("known kind", func(t *testing.T) {
		var body struct {
			Success bool   `json:"success"`
			Kind    string `json:"kind"`
		}
		code := getJSON(t, srv.URL+"/api/market/summary/market_share", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, body.Success)
		assert.Equal(t, "market_share", body.Kind)
	})

	t.Run("unknown kind", func(t *testing.T) {
		var body struct {
			Success bool `json:"success"`
			Error   struct {
				ErrorCode string `json:"error_code"`
			} `json:"error"`
		}
		code := getJSON(t, srv.URL+"/api/market/summary/bogus", &body)
		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, body.Success)
		assert.Equal(t, "UNKNOWN_SUMMARY", body.Error.ErrorCode)
	})
}

func TestNoSnapshotYet(t *testing.T) {
	srv := testServer(t, nil)

	var body struct {
		Error struct {
			ErrorCode string `json:"error_code"`
		} `json:"error"`
	}
	code := getJSON(t, srv.URL+"/api/market/models", &body)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "NO_SNAPSHOT", body.Error.ErrorCode)
}

func TestGetCoverage(t *testing.T) {
	srv := testServer(t, testSnapshot())

	var body struct {
		Price domain.Coverage `json:"price"`
		Sales domain.Coverage `json:"sales"`
	}
	code := getJSON(t, srv.URL+"/api/market/coverage", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.Coverage{With: 1, Total: 2}, body.Price)
	assert.Equal(t, domain.Coverage{With: 1, Total: 2}, body.Sales)
}

func TestHealth(t *testing.T) {
	t.Run("alive before first run", func(t *testing.T) {
		srv := testServer(t, nil)
		var body struct {
			Status string `json:"status"`
		}
		code := getJSON(t, srv.URL+"/api/health", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body.Status)
	})

	t.Run("not ready before first run", func(t *testing.T) {
		srv := testServer(t, nil)
		var body struct {
			Status string `json:"status"`
			State  string `json:"state"`
		}
		code := getJSON(t, srv.URL+"/api/health/ready", &body)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
	})

	t.Run("ready after publish", func(t *testing.T) {
		srv := testServer(t, testSnapshot())
		var body struct {
			Status string `json:"status"`
			State  string `json:"state"`
		}
		code := getJSON(t, srv.URL+"/api/health/ready", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, string(pipeline.StateFresh), body.State)
	})
}

func TestGetState(t *testing.T) {
	srv := testServer(t, testSnapshot())

	var body struct {
		State string `json:"state"`
		RunID string `json:"run_id"`
	}
	code := getJSON(t, srv.URL+"/api/market/state", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(pipeline.StateFresh), body.State)
	assert.Equal(t, "run-http", body.RunID)
}
