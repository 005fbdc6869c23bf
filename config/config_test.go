package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamespfennell/hafas/products"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
timezone: UTC
extension: db
logLevel: debug
products:
  - category: ZUG
    product: regional_train
  - category: X
    adminCode: "800123"
    product: BUS
`))
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Extension)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	tz, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, tz)

	table, err := cfg.ProductTable()
	require.NoError(t, err)
	assert.Equal(t, products.RegionalTrain, table.Lookup("ZUG", ""))
	assert.Equal(t, products.Bus, table.Lookup("X", "800123"))
	assert.Equal(t, products.Unknown, table.Lookup("X", ""))
	assert.Equal(t, products.HighSpeedTrain, table.Lookup("ICE", ""), "default table is kept")

	opts, err := cfg.ParseTripsOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "5", opts.Extension.NormalizePosition("Gl. 5"))
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.Level())
	opts, err := cfg.ParseTripsOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, opts.Timezone)
	assert.Equal(t, "Gl. 5", opts.Extension.NormalizePosition(" Gl. 5 "))
}

func TestParse_Invalid(t *testing.T) {
	for _, tc := range []struct {
		desc string
		yaml string
	}{
		{"not yaml", "extension: [db"},
		{"unknown extension", "extension: sbb"},
		{"unknown log level", "logLevel: loud"},
		{"unknown timezone", "timezone: Mars/Olympus_Mons"},
		{"override without category", "products: [{product: BUS}]"},
		{"unknown product", "products: [{category: X, product: ZEPPELIN}]"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(tablePath, []byte("category,product\nZUG,SUBWAY\n"), 0o644))
	configPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("productTable: "+tablePath+"\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, tablePath, cfg.ProductTablePath)
	table, err := cfg.ProductTable()
	require.NoError(t, err)
	assert.Equal(t, products.Subway, table.Lookup("ZUG", ""))
	assert.Equal(t, products.Unknown, table.Lookup("ICE", ""), "table file replaces the default table")

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
