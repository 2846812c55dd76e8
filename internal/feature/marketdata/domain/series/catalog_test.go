package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_backend/internal/feature/marketdata/domain"
	"market_backend/internal/feature/marketdata/domain/entity"
)

func TestCatalog_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog *Catalog
		token   string
		wantKey string
		wantErr error
	}{
		{"success: canonical minute", CryptoCatalog(), "1", "1", nil},
		{"success: 1m alias", CryptoCatalog(), "1m", "1", nil},
		{"success: 1min alias", StockCatalog(), "1min", "1", nil},
		{"success: upper-case 1M is a minute", StockCatalog(), "1M", "1", nil},
		{"success: 1h maps to 60", CryptoCatalog(), "1h", "60", nil},
		{"success: padded and upper-case", ForexCatalog(), " 1H ", "60", nil},
		{"success: 4h on crypto", CryptoCatalog(), "4h", "240", nil},
		{"success: day", StockCatalog(), "day", "D", nil},
		{"success: DY is daily", ForexCatalog(), "DY", "D", nil},
		{"success: week", StockCatalog(), "1wk", "W", nil},
		{"success: bare M is month", StockCatalog(), "M", "M", nil},
		{"success: 1mo is month", CryptoCatalog(), "1mo", "M", nil},
		{"error: 2h is not an equity resolution", StockCatalog(), "2h", "", domain.ErrUnsupportedResolution},
		{"error: unknown token", CryptoCatalog(), "3m", "", domain.ErrUnsupportedResolution},
		{"error: empty token", CryptoCatalog(), "", "", domain.ErrUnsupportedResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := tt.catalog.Normalize(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, r.Key)
		})
	}
}

func TestCatalog_NormalizeErrorListsSupportedKeys(t *testing.T) {
	t.Parallel()

	_, err := StockCatalog().Normalize("4h")
	require.ErrorIs(t, err, domain.ErrUnsupportedResolution)
	assert.Equal(t, `unsupported resolution: "4h" (supported: 1, 5, 15, 30, 60, D, W, M)`, err.Error())
}

func TestCatalog_Tables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class entity.AssetClass
		keys  []string
		tz    string
	}{
		{entity.AssetClassStock, []string{"1", "5", "15", "30", "60", "D", "W", "M"}, "America/New_York"},
		{entity.AssetClassCrypto, []string{"1", "5", "15", "30", "60", "120", "240", "D", "W", "M"}, "UTC"},
		{entity.AssetClassForex, []string{"1", "5", "15", "30", "60", "120", "240", "D", "W", "M"}, "America/New_York"},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			t.Parallel()
			cat, err := CatalogFor(tt.class)
			require.NoError(t, err)
			assert.Equal(t, tt.keys, cat.Keys())
			assert.Equal(t, tt.tz, cat.Location().String())

			for _, r := range cat.Resolutions() {
				assert.Positive(t, r.MaxCandles, "max candles for %s", r.Key)
				assert.True(t, r.Native != "" || len(r.DeriveFrom) > 0, "%s has no source", r.Key)
				for _, src := range r.DeriveFrom {
					_, ok := cat.Lookup(src)
					assert.True(t, ok, "%s derives from unknown key %s", r.Key, src)
				}
			}
		})
	}

	_, err := CatalogFor("bonds")
	assert.ErrorIs(t, err, domain.ErrUnknownAssetClass)
}
