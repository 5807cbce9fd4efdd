package pricetracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

func newTrackerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Pikachu 151", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success": true, "data": [{
			"id": "sv3pt5-25", "name": "Pikachu", "setName": "151", "number": "25",
			"prices": {"tcgplayer": {"marketPrice": 0.25, "lowPrice": 0.1, "subTypeName": "Normal"}}
		}]}`))
	})
	mux.HandleFunc("/prices/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sv3pt5-25", r.URL.Query().Get("cardId"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		assert.Equal(t, "eBay", r.URL.Query().Get("source"))
		_, _ = w.Write([]byte(`{"success": true, "data": [{"date": "2024-01-01", "price": 2.5, "source": "eBay", "condition": "NM"}]}`))
	})
	mux.HandleFunc("/sets", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"id": "sv3pt5", "name": "151", "releaseDate": "2023/09/22"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTrackerServer(t)
	client := NewClient(srv.URL, "good")
	ctx := context.Background()

	resp, err := client.SearchPrices(ctx, "Pikachu 151", SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Normal", resp.Data[0].Prices.TCGPlayer.SubTypeName)

	history, err := client.GetPriceHistory(ctx, "sv3pt5-25", HistoryOptions{Source: "eBay"})
	require.NoError(t, err)
	require.Len(t, history.Data, 1)
	assert.Equal(t, 2.5, history.Data[0].Price)

	sets, err := client.GetSets(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestValidateAPIKey(t *testing.T) {
	srv := newTrackerServer(t)

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"missing key", "", false},
		{"rejected key", "bad", false},
		{"accepted key", "good", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewClient(srv.URL, tt.key).ValidateAPIKey(context.Background()); got != tt.want {
				t.Errorf("ValidateAPIKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchPricesWithoutKey(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "").SearchPrices(context.Background(), "x", SearchOptions{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("SearchPrices() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestConvertToInternalPrices(t *testing.T) {
	quote := func(source string, price float64, currency, condition string) providers.SourcedQuote {
		return providers.SourcedQuote{Source: source, Quote: providers.Quote{
			Price: price, Currency: currency, Condition: condition, InStock: true,
		}}
	}

	tests := []struct {
		name string
		card Card
		want []providers.SourcedQuote
	}{
		{
			name: "tcgplayer without sub type",
			card: Card{Prices: CardPrices{TCGPlayer: &TCGPlayerPrices{MarketPrice: 4, LowPrice: 2}}},
			want: []providers.SourcedQuote{
				quote("TCGPlayer", 4, "USD", "market"),
				quote("TCGPlayer", 2, "USD", "low"),
			},
		},
		{
			name: "ebay keeps three recent sales",
			card: Card{Prices: CardPrices{EBay: &EBayPrices{
				AveragePrice: 10,
				RecentSales: []Sale{
					{Price: 9, Condition: "NM"},
					{Price: 11, Condition: "LP"},
					{Price: 12, Condition: "PSA 9"},
					{Price: 50, Condition: "PSA 10"},
				},
			}}},
			want: []providers.SourcedQuote{
				quote("eBay", 10, "USD", "average"),
				quote("eBay", 9, "USD", "NM"),
				quote("eBay", 11, "USD", "LP"),
				quote("eBay", 12, "USD", "PSA 9"),
			},
		},
		{
			name: "cardmarket skips zero prices",
			card: Card{Prices: CardPrices{CardMarket: &CardMarketPrices{AveragePrice: 0, TrendPrice: 3}}},
			want: []providers.SourcedQuote{quote("CardMarket", 3, "EUR", "trend")},
		},
		{
			name: "no prices",
			card: Card{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertToInternalPrices(&tt.card); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ConvertToInternalPrices() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
