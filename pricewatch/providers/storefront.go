package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
)

const StorefrontKind = "storefront"

// Selectors are the CSS selectors used to read a shop's search and product
// pages. They come from the "selectors" object of the source config.
type Selectors struct {
	Item   string
	Name   string
	Set    string
	Number string
	Image  string
	Rarity string
	Link   string
	Price  string
	Stock  string
}

var defaultSelectors = Selectors{
	Item:   ".product",
	Name:   ".product-name",
	Set:    ".product-set",
	Number: ".product-number",
	Image:  "img",
	Rarity: ".product-rarity",
	Link:   "a",
	Price:  ".price",
	Stock:  ".stock",
}

var soldOutMarkers = []string{"sold out", "out of stock", "売り切れ", "在庫なし", "品切れ"}

type pageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Storefront scrapes a shop's HTML search results and product pages. With
// the "render" option set pages are loaded in headless Chrome first.
type Storefront struct {
	name       string
	base       *url.URL
	searchPath string
	queryParam string
	currency   string
	selectors  Selectors
	fetcher    pageFetcher
}

func NewStorefront(name string, cfg Config) (Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("storefront %s: baseUrl is required", name)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("storefront %s: invalid baseUrl: %w", name, err)
	}

	headers := map[string]string{"User-Agent": config.DefaultUserAgent}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	var fetcher pageFetcher
	if cfg.BoolOption("render") {
		fetcher = &browserFetcher{headers: headers}
	} else {
		client := resty.New().
			SetTimeout(config.ProviderCallTimeout).
			SetHeaders(headers)
		fetcher = &restyFetcher{client: client}
	}

	searchPath := cfg.SearchPath
	if searchPath == "" {
		searchPath = "/search"
	}

	return &Storefront{
		name:       name,
		base:       base,
		searchPath: searchPath,
		queryParam: cfg.Option("queryParam", "q"),
		currency:   cfg.Option("currency", "JPY"),
		selectors:  selectorsFromOptions(cfg.Options["selectors"]),
		fetcher:    fetcher,
	}, nil
}

func selectorsFromOptions(raw any) Selectors {
	s := defaultSelectors
	m, ok := raw.(map[string]any)
	if !ok {
		return s
	}
	set := func(dst *string, key string) {
		if v, ok := m[key].(string); ok && v != "" {
			*dst = v
		}
	}
	set(&s.Item, "item")
	set(&s.Name, "name")
	set(&s.Set, "set")
	set(&s.Number, "number")
	set(&s.Image, "image")
	set(&s.Rarity, "rarity")
	set(&s.Link, "link")
	set(&s.Price, "price")
	set(&s.Stock, "stock")
	return s
}

func (s *Storefront) Name() string { return s.name }

func (s *Storefront) SearchCard(ctx context.Context, query string) ([]CandidateMatch, error) {
	searchURL := s.resolve(s.searchPath)
	values := searchURL.Query()
	values.Set(s.queryParam, NormalizeCardName(query))
	searchURL.RawQuery = values.Encode()

	doc, err := s.document(ctx, searchURL.String())
	if err != nil {
		return nil, err
	}

	var matches []CandidateMatch
	doc.Find(s.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find(s.selectors.Link).First().Attr("href")
		if !ok || href == "" {
			return
		}
		image, _ := item.Find(s.selectors.Image).First().Attr("src")
		if image != "" {
			image = s.resolve(image).String()
		}
		matches = append(matches, CandidateMatch{
			ID:        s.resolve(href).String(),
			Name:      NormalizeCardName(item.Find(s.selectors.Name).First().Text()),
			SetName:   strings.TrimSpace(item.Find(s.selectors.Set).First().Text()),
			SetNumber: strings.TrimSpace(item.Find(s.selectors.Number).First().Text()),
			ImageURL:  image,
			Rarity:    strings.TrimSpace(item.Find(s.selectors.Rarity).First().Text()),
		})
	})

	return matches, nil
}

func (s *Storefront) GetPrice(ctx context.Context, candidateID string) (*Quote, error) {
	productURL := s.resolve(candidateID).String()

	doc, err := s.document(ctx, productURL)
	if err != nil {
		return nil, err
	}

	priceText := doc.Find(s.selectors.Price).First().Text()
	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, fmt.Errorf("storefront %s: %w", s.name, err)
	}

	inStock := true
	if stock := strings.ToLower(doc.Find(s.selectors.Stock).First().Text()); stock != "" {
		for _, marker := range soldOutMarkers {
			if strings.Contains(stock, marker) {
				inStock = false
				break
			}
		}
	}

	return &Quote{
		Price:      price,
		Currency:   s.currency,
		InStock:    inStock,
		ProductURL: productURL,
		ScrapedAt:  time.Now(),
	}, nil
}

func (s *Storefront) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", pageURL, err)
	}
	return doc, nil
}

func (s *Storefront) resolve(ref string) *url.URL {
	u, err := url.Parse(ref)
	if err != nil {
		return s.base.JoinPath(ref)
	}
	return s.base.ResolveReference(u)
}

var priceDigits = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)

// ErrNoPrice is returned when a page carries no readable price.
var ErrNoPrice = errors.New("no price found")

// ParsePrice reads the first number in text, ignoring currency symbols and
// thousands separators: "¥1,280 (税込)" is 1280.
func ParsePrice(text string) (float64, error) {
	raw := priceDigits.FindString(text)
	if raw == "" {
		return 0, ErrNoPrice
	}
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

type restyFetcher struct {
	client *resty.Client
}

func (f *restyFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: %s", pageURL, res.Status())
	}
	return res.Body(), nil
}

type browserFetcher struct {
	headers map[string]string
}

func (f *browserFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	headers := network.Headers{}
	for k, v := range f.headers {
		headers[k] = v
	}

	var html string
	err := chromedp.Run(chromedpCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", pageURL, err)
	}
	return []byte(html), nil
}
