package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carmarket/internal/config"
	apperrors "carmarket/internal/errors"
	"carmarket/pkg/contracts/domain"
)

func TestStore_PublishAndState(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StateEmpty, s.State())
	assert.Nil(t, s.Current())

	v1 := s.NextVersion()
	require.True(t, s.Publish(&Snapshot{RunID: "a", Version: v1}))
	assert.Equal(t, StateFresh, s.State())
	assert.Equal(t, "a", s.Current().RunID)
}

func TestStore_StaleWriterCannotClobber(t *testing.T) {
	s := NewStore()

	slow := s.NextVersion()
	fast := s.NextVersion()

	// The later run finishes first.
	require.True(t, s.Publish(&Snapshot{RunID: "fast", Version: fast}))
	// The earlier run finishing late must not replace the newer snapshot.
	assert.False(t, s.Publish(&Snapshot{RunID: "slow", Version: slow}))
	assert.Equal(t, "fast", s.Current().RunID)
}

func TestStore_MarkStale(t *testing.T) {
	s := NewStore()

	v := s.NextVersion()
	s.Publish(&Snapshot{Version: v})
	require.Equal(t, StateFresh, s.State())

	s.MarkStale()
	assert.Equal(t, StateStale, s.State(), "published snapshot stays readable but stale")
	assert.NotNil(t, s.Current())

	// A recompute with a fresh version restores freshness.
	v2 := s.NextVersion()
	s.Publish(&Snapshot{Version: v2})
	assert.Equal(t, StateFresh, s.State())
}

func writeTestData(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"Basic_table.csv": "Automaker,Automaker_ID,Genmodel,Genmodel_ID\n" +
			"Ford,18,Focus,18_1\n" +
			"Ford,18,Fiesta,18_2\n" +
			"BMW Group,5,3 Series,5_1\n" +
			"unknown,99,Ghost,99_1\n",
		"Price_table.csv": "Maker,Genmodel,Genmodel_ID,Year,Entry_price\n" +
			"Ford,Focus,18_1,2010,18000\n" +
			"Ford,Focus,18_1,2011,20000\n" +
			"Ford,Fiesta,18_2,2010,12000\n" +
			"BMW Group,3 Series,5_1,2010,30000\n",
		"Sales_table.csv": "Maker,Genmodel,Genmodel_ID,2010,2011,2012\n" +
			"Ford,Focus,18_1,1000,1100,1200\n" +
			"Ford,Fiesta,18_2,800,,700\n" +
			"BMW Group,3 Series,5_1,500,550,600\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestRunner_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	cfg := config.Default()
	cfg.Paths.DataDir = dir

	store := NewStore()
	runner := NewRunner(cfg, store, nil)

	snap, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, StateFresh, store.State())
	assert.Same(t, snap, store.Current())

	// The alias BMW Group resolved, the placeholder row was excluded.
	assert.Len(t, snap.Models, 3)
	makers := map[string]bool{}
	for _, m := range snap.Models {
		makers[m.Automaker] = true
	}
	assert.True(t, makers["BMW"])
	assert.False(t, makers["BMW Group"])
	assert.False(t, makers["unknown"])

	// Every model in this fixture has price and sales data joined.
	for _, m := range snap.Models {
		assert.True(t, m.HasPriceData(), m.Key().String())
		assert.True(t, m.HasSalesData(), m.Key().String())
	}

	assert.Len(t, snap.CleaningReports, 3)
	assert.Len(t, snap.Quality, 3)
	assert.NotEmpty(t, snap.Shares)
	assert.Equal(t, "Ford", snap.Shares[0].Automaker, "Ford leads this fixture")
	assert.Greater(t, snap.Concentration.HHI, 0.0)
	assert.NotEmpty(t, snap.Insights)
	assert.InDelta(t, 6450, snap.KPI.TotalVolume, 1e-9)
}

func TestRunner_SecondRunSupersedesFirst(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	cfg := config.Default()
	cfg.Paths.DataDir = dir

	store := NewStore()
	runner := NewRunner(cfg, store, nil)

	first, err := runner.Run(context.Background())
	require.NoError(t, err)

	store.MarkStale()
	second, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Greater(t, second.Version, first.Version)
	assert.Equal(t, StateFresh, store.State())
	assert.Same(t, second, store.Current())
}

func TestRunner_MissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	runner := NewRunner(cfg, NewStore(), nil)
	_, err := runner.Run(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
	assert.Equal(t, StateEmpty, runner.Store().State())
}

func TestSnapshot_ModelsCarrySegments(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	cfg := config.Default()
	cfg.Paths.DataDir = dir

	snap, err := NewRunner(cfg, NewStore(), nil).Run(context.Background())
	require.NoError(t, err)

	for _, m := range snap.Models {
		assert.NotEqual(t, domain.MarketSegment(""), m.Segment)
		assert.NotEqual(t, domain.PerformanceTier(""), m.Tier)
	}
}
