package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgwatch/pricewatch/pricewatch/database/models"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
)

const pikachuPage = `{
  "data": [{
    "id": "sv3pt5-25",
    "name": "Pikachu",
    "set": {"id": "sv3pt5", "name": "151", "series": "Scarlet & Violet", "releaseDate": "2023/09/22"},
    "number": "25",
    "rarity": "Common",
    "supertype": "Pokémon",
    "images": {"small": "https://img/s.png", "large": "https://img/l.png"},
    "tcgplayer": {"url": "https://tcg/p", "prices": {
      "normal": {"low": 0.1, "mid": 0.2, "high": 1, "market": 0.25},
      "reverseHolofoil": {"low": 0.5, "mid": 1, "high": 3, "market": 1.1}
    }},
    "cardmarket": {"url": "https://cm/p", "prices": {"averageSellPrice": 0.3, "lowPrice": 0.02, "trendPrice": 0}}
  }],
  "page": 1, "pageSize": 20, "count": 1, "totalCount": 1
}`

func TestTranslateQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"katakana name", "ピカチュウ", "pikachu"},
		{"alternate spelling", "ピカチュー", "pikachu"},
		{"longer name before prefix", "ミュウツー", "mewtwo"},
		{"prefix name", "ミュウ", "mew"},
		{"evolution not hijacked by prefix", "リザードン", "charizard"},
		{"name inside sentence", "リザードンex SAR", "charizard"},
		{"set name", "ポケモンカード151", "151"},
		{"mechanic after unknown name", "ホゲータVSTAR", "vstar"},
		{"unmapped japanese passes through", "  ニャオハ ", "ニャオハ"},
		{"ascii is lowercased", "  Charizard V ", "charizard v"},
		{"ascii ex untouched", "Mewtwo ex", "mewtwo ex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TranslateQuery(tt.query); got != tt.want {
				t.Errorf("TranslateQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearchCards(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/cards", r.URL.Path)
		assert.Equal(t, "name:*pikachu*", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "-set.releaseDate", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pikachuPage))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	opts := SearchOptions{OrderBy: "-set.releaseDate"}

	resp, err := client.SearchCards(context.Background(), "ピカチュウ", opts)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "sv3pt5-25", resp.Data[0].ID)
	assert.Equal(t, 1, resp.TotalCount)

	_, err = client.SearchCards(context.Background(), "ピカチュウ", opts)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second identical search should be served from cache")
}

func TestSearchCardsCacheExpires(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(pikachuPage))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	now := time.Now()
	client.now = func() time.Time { return now }

	_, err := client.SearchCards(context.Background(), "pikachu", SearchOptions{})
	require.NoError(t, err)

	now = now.Add(client.ttl + time.Second)
	_, err = client.SearchCards(context.Background(), "pikachu", SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchCardsBySetAndGetters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cards", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `set.name:"151"`, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(pikachuPage))
	})
	mux.HandleFunc("/cards/sv3pt5-25", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"id": "sv3pt5-25", "name": "Pikachu", "set": {"name": "151"}, "number": "25"}}`))
	})
	mux.HandleFunc("/sets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{"data": [{"id": "sv3pt5", "name": "151", "series": "Scarlet & Violet"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, "")
	ctx := context.Background()

	bySet, err := client.SearchCardsBySet(ctx, "151", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, bySet.Data, 1)

	card, err := client.GetCardByID(ctx, "sv3pt5-25")
	require.NoError(t, err)
	assert.Equal(t, "Pikachu", card.Name)

	sets, err := client.GetSets(ctx, SearchOptions{PageSize: 5})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "Scarlet & Violet", sets[0].Series)
}

func TestSearchCardsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").SearchCards(context.Background(), "pikachu", SearchOptions{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "error = %v", err)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestConvertAndExtract(t *testing.T) {
	card := &Card{
		Name:      "Pikachu",
		Set:       Set{Name: "151", Series: "Scarlet & Violet"},
		Number:    "25",
		Rarity:    "Common",
		Supertype: "Pokémon",
		Images:    CardImages{Large: "https://img/l.png"},
		TCGPlayer: &TCGPlayer{URL: "https://tcg/p", Prices: TCGPlayerPrices{
			Holofoil:        &PriceTier{Market: 3.5},
			Normal:          &PriceTier{Market: 0},
			ReverseHolofoil: &PriceTier{Market: 1.1},
		}},
		CardMarket: &CardMarket{URL: "https://cm/p", Prices: CardMarketPrices{AverageSellPrice: 0.3, TrendPrice: 0.4}},
	}

	wantCard := &models.Card{
		Name:      "Pikachu",
		SetName:   "151",
		SetNumber: "25",
		Rarity:    "Common",
		CardType:  "Pokémon",
		Series:    "Scarlet & Violet",
		ImageURL:  "https://img/l.png",
	}
	if got := ConvertToInternalCard(card); !reflect.DeepEqual(got, wantCard) {
		t.Errorf("ConvertToInternalCard() = %+v, want %+v", got, wantCard)
	}

	quote := func(source string, price float64, currency, condition, productURL string) providers.SourcedQuote {
		return providers.SourcedQuote{Source: source, Quote: providers.Quote{
			Price: price, Currency: currency, Condition: condition, InStock: true, ProductURL: productURL,
		}}
	}
	want := []providers.SourcedQuote{
		quote("TCGPlayer", 3.5, "USD", "holofoil", "https://tcg/p"),
		quote("TCGPlayer", 1.1, "USD", "reverse_holofoil", "https://tcg/p"),
		quote("CardMarket", 0.3, "EUR", "average", "https://cm/p"),
		quote("CardMarket", 0.4, "EUR", "trend", "https://cm/p"),
	}
	if got := ExtractPrices(card); !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPrices() = %+v, want %+v", got, want)
	}

	if got := ExtractPrices(&Card{Name: "No prices"}); len(got) != 0 {
		t.Errorf("ExtractPrices() without price blocks = %+v, want none", got)
	}
}
