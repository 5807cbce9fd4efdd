package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
)

const searchPage = `<html><body>
<div class="product">
  <a href="/products/pika-001"><span class="product-name">【Pikachu】</span></a>
  <span class="product-set">Sample Set</span><span class="product-number">001</span>
  <img src="/img/pika.jpg"><span class="product-rarity">Rare</span>
</div>
<div class="product">
  <span class="product-name">No link</span>
</div>
</body></html>`

const productPage = `<html><body><span class="price">¥1,280</span><span class="stock">売り切れ</span></body></html>`

func newShopServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Pikachu" {
			t.Errorf("search query = %q, want Pikachu", r.URL.Query().Get("q"))
		}
		if r.Header.Get("X-Shop") != "yes" {
			t.Errorf("missing configured header")
		}
		fmt.Fprint(w, searchPage)
	})
	mux.HandleFunc("/products/pika-001", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage)
	})
	mux.HandleFunc("/products/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStorefront(t *testing.T) {
	srv := newShopServer(t)

	p, err := NewStorefront("card-shop", Config{
		BaseURL:    srv.URL,
		SearchPath: "/search",
		Headers:    map[string]string{"X-Shop": "yes"},
		Options:    map[string]any{"currency": "JPY"},
	})
	if err != nil {
		t.Fatalf("NewStorefront() error = %v", err)
	}

	matches, err := p.SearchCard(context.Background(), "  Pikachu ")
	if err != nil {
		t.Fatalf("SearchCard() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("SearchCard() = %d matches, want 1", len(matches))
	}
	want := CandidateMatch{
		ID:        srv.URL + "/products/pika-001",
		Name:      "Pikachu",
		SetName:   "Sample Set",
		SetNumber: "001",
		ImageURL:  srv.URL + "/img/pika.jpg",
		Rarity:    "Rare",
	}
	if matches[0] != want {
		t.Errorf("SearchCard()[0] = %+v, want %+v", matches[0], want)
	}

	quote, err := p.GetPrice(context.Background(), matches[0].ID)
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if quote.Price != 1280 || quote.Currency != "JPY" || quote.InStock {
		t.Errorf("GetPrice() = %+v", quote)
	}

	if _, err := p.GetPrice(context.Background(), "/products/broken"); err == nil {
		t.Errorf("GetPrice() on 500 page should fail")
	}
}

func TestNewStorefrontRequiresBaseURL(t *testing.T) {
	if _, err := NewStorefront("card-shop", Config{}); err == nil {
		t.Errorf("NewStorefront() without baseUrl should fail")
	}
}

func TestStorefrontUserAgent(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "default", want: config.DefaultUserAgent},
		{name: "source override", headers: map[string]string{"User-Agent": "shop-bot/1.0"}, want: "shop-bot/1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.UserAgent()
				fmt.Fprint(w, "<html><body></body></html>")
			}))
			defer srv.Close()

			p, err := NewStorefront("card-shop", Config{BaseURL: srv.URL, Headers: tt.headers})
			if err != nil {
				t.Fatalf("NewStorefront() error = %v", err)
			}
			if _, err := p.SearchCard(context.Background(), "Pikachu"); err != nil {
				t.Fatalf("SearchCard() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("User-Agent = %q, want %q", got, tt.want)
			}
		})
	}
}
