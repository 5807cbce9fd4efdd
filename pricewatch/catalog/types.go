package catalog

// Card is a card as returned by the catalog API.
type Card struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Set        Set         `json:"set"`
	Number     string      `json:"number"`
	Rarity     string      `json:"rarity,omitempty"`
	Types      []string    `json:"types,omitempty"`
	Supertype  string      `json:"supertype"`
	Subtypes   []string    `json:"subtypes,omitempty"`
	Images     CardImages  `json:"images"`
	TCGPlayer  *TCGPlayer  `json:"tcgplayer,omitempty"`
	CardMarket *CardMarket `json:"cardmarket,omitempty"`
}

type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

type Set struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Series       string            `json:"series"`
	PrintedTotal int               `json:"printedTotal,omitempty"`
	Total        int               `json:"total,omitempty"`
	Legalities   map[string]string `json:"legalities,omitempty"`
	ReleaseDate  string            `json:"releaseDate"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
	Images       *SetImages        `json:"images,omitempty"`
}

type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

type TCGPlayer struct {
	URL       string          `json:"url"`
	UpdatedAt string          `json:"updatedAt"`
	Prices    TCGPlayerPrices `json:"prices"`
}

type TCGPlayerPrices struct {
	Holofoil        *PriceTier `json:"holofoil,omitempty"`
	ReverseHolofoil *PriceTier `json:"reverseHolofoil,omitempty"`
	Normal          *PriceTier `json:"normal,omitempty"`
	Unlimited       *PriceTier `json:"unlimited,omitempty"`
}

type PriceTier struct {
	Low       float64 `json:"low"`
	Mid       float64 `json:"mid"`
	High      float64 `json:"high"`
	Market    float64 `json:"market"`
	DirectLow float64 `json:"directLow,omitempty"`
}

type CardMarket struct {
	URL       string           `json:"url"`
	UpdatedAt string           `json:"updatedAt"`
	Prices    CardMarketPrices `json:"prices"`
}

type CardMarketPrices struct {
	AverageSellPrice float64 `json:"averageSellPrice"`
	LowPrice         float64 `json:"lowPrice"`
	TrendPrice       float64 `json:"trendPrice"`
	Avg1             float64 `json:"avg1,omitempty"`
	Avg7             float64 `json:"avg7,omitempty"`
	Avg30            float64 `json:"avg30,omitempty"`
}

// SearchResponse is one page of card results.
type SearchResponse struct {
	Data       []Card `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// SearchOptions controls paging. Zero values fall back to page 1 and the
// default page size.
type SearchOptions struct {
	Page     int
	PageSize int
	OrderBy  string
}
