package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carmarket/internal/config"
	apperrors "carmarket/internal/errors"
)

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	return New(config.Default().Pipeline.Loader, dir, nil)
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLoadCatalog_HeaderCanonicalization(t *testing.T) {
	dir := t.TempDir()
	// Source spelling and casing differ from the canonical names.
	writeFile(t, dir, "Basic_table.csv",
		[]byte("maker,MAKER_ID,Model,model_id\nFord,18,Focus,18_1\n"))

	records, err := newTestLoader(t, dir).LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ford", records[0].Automaker)
	assert.Equal(t, "18", records[0].AutomakerID)
	assert.Equal(t, "Focus", records[0].Genmodel)
	assert.Equal(t, "18_1", records[0].GenmodelID)
}

func TestLoadCatalog_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Basic_table.csv", []byte("Maker,Maker_ID\nFord,18\n"))

	_, err := newTestLoader(t, dir).LoadCatalog(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)
}

func TestLoadCatalog_FileNotFound(t *testing.T) {
	_, err := newTestLoader(t, t.TempDir()).LoadCatalog(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)
}

func TestLoadCatalog_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Basic_table.csv", []byte(""))

	_, err := newTestLoader(t, dir).LoadCatalog(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)
}

func TestEncodingFallback(t *testing.T) {
	t.Run("utf-8 with BOM", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Maker,Genmodel,Genmodel_ID\nŠkoda,Octavia,33_1\n")...)
		dir := t.TempDir()
		writeFile(t, dir, "Basic_table.csv", data)

		records, err := newTestLoader(t, dir).LoadCatalog(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Škoda", records[0].Automaker)
	})

	t.Run("utf-16le falls through", func(t *testing.T) {
		text := "Maker,Genmodel,Genmodel_ID\nFord,Ka,18_5\n"
		encoded := []byte{0xFF, 0xFE} // BOM
		for _, r := range text {
			encoded = append(encoded, byte(r), 0)
		}
		dir := t.TempDir()
		writeFile(t, dir, "Basic_table.csv", encoded)

		records, err := newTestLoader(t, dir).LoadCatalog(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Ford", records[0].Automaker)
	})

	t.Run("windows-1252 last resort", func(t *testing.T) {
		// 0xEB is ë in Windows-1252 and invalid standalone UTF-8.
		data := []byte("Maker,Genmodel,Genmodel_ID\nCitro\xebn,C3,12_1\n")
		dir := t.TempDir()
		writeFile(t, dir, "Basic_table.csv", data)

		records, err := newTestLoader(t, dir).LoadCatalog(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Citroën", records[0].Automaker)
	})
}

func TestLoadPrices_UnparseableRowsKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Price_table.csv",
		[]byte("Maker,Genmodel,Genmodel_ID,Year,Entry_price\nFord,Focus,18_1,2010,18000\nFord,Fiesta,18_2,not-a-year,oops\n"))

	obs, err := newTestLoader(t, dir).LoadPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 2, "unparseable rows stay for the validator to count")
	assert.True(t, obs[0].IsValid())
	assert.False(t, obs[1].IsValid())
}

func TestLoadPrices_ThousandsSeparators(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Price_table.csv",
		[]byte("Maker,Genmodel,Genmodel_ID,Year,Entry_price\nBMW,7 Series,5_9,2010,\"105,000\"\n"))

	obs, err := newTestLoader(t, dir).LoadPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 105000.0, obs[0].EntryPrice)
}

func TestLoadSales_WideYears(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Sales_table.csv",
		[]byte("Maker,Genmodel,Genmodel_ID,1999,2010,2011,2020,2021\nFord,Focus,18_1,5,1000,,1200,7\n"))

	records, err := newTestLoader(t, dir).LoadSales(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	units := records[0].Units
	assert.NotContains(t, units, 1999, "years outside the configured range are ignored")
	assert.NotContains(t, units, 2021)
	assert.NotContains(t, units, 2011, "empty cells stay absent, not zero-filled")
	assert.Equal(t, 1000.0, units[2010])
	assert.Equal(t, 1200.0, units[2020])
	assert.Equal(t, []int{2010, 2020}, records[0].Years())
}

func TestLoadAll_Concurrent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Basic_table.csv", []byte("Maker,Genmodel,Genmodel_ID\nFord,Focus,18_1\n"))
	writeFile(t, dir, "Price_table.csv", []byte("Maker,Genmodel,Genmodel_ID,Year,Entry_price\nFord,Focus,18_1,2010,18000\n"))
	writeFile(t, dir, "Sales_table.csv", []byte("Maker,Genmodel,Genmodel_ID,2010\nFord,Focus,18_1,1000\n"))

	tables, err := newTestLoader(t, dir).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables.Catalog, 1)
	assert.Len(t, tables.Prices, 1)
	assert.Len(t, tables.Sales, 1)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
		ok   bool
	}{
		{name: "integer", cell: "1200", want: 1200, ok: true},
		{name: "thousands separator", cell: "1,200", want: 1200, ok: true},
		{name: "fractional", cell: "10.5", want: 10.5, ok: true},
		{name: "empty", cell: "", ok: false},
		{name: "garbage", cell: "n/a", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCount(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
