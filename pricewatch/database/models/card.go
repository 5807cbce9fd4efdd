package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Card is a catalogued trading card. (SetName, SetNumber) is its natural key.
type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	JapaneseName string    `bun:"japanese_name,nullzero" json:"japanName,omitempty"`
	SetName      string    `bun:"set_name,notnull,unique:cards_set_key" json:"setName"`
	SetNumber    string    `bun:"set_number,notnull,unique:cards_set_key" json:"setNumber"`
	Rarity       string    `bun:"rarity,nullzero" json:"rarity,omitempty"`
	CardType     string    `bun:"card_type,nullzero" json:"cardType,omitempty"`
	Series       string    `bun:"series,nullzero" json:"series,omitempty"`
	ImageURL     string    `bun:"image_url,nullzero" json:"imageUrl,omitempty"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
