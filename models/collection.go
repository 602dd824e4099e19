package models

// TokenKind is the token standard a collection's contract implements.
type TokenKind string

const (
	TokenKindNonFungible TokenKind = "non_fungible" // ERC-721 style
	TokenKindFungible    TokenKind = "fungible"     // ERC-1155 style multi-token
)

func (k TokenKind) Valid() bool {
	return k == TokenKindNonFungible || k == TokenKindFungible
}

// Collection is a registered asset class. Collections are never deleted, only deactivated.
type Collection struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name          string    `json:"name"`
	Slug          string    `gorm:"index" json:"slug"`
	TokenContract string    `gorm:"type:varchar(42);uniqueIndex;not null" json:"token_contract"`
	Creator       string    `gorm:"type:varchar(42);not null" json:"creator"`
	Kind          TokenKind `gorm:"type:varchar(16);not null" json:"kind"`
	Active        bool      `gorm:"not null" json:"active"`
	Collectable   bool      `gorm:"not null" json:"collectable"` // may be attached to a season

	Timestamps
}
