package models

import "time"

// TokenContract is a token contract deployed on the in-process ledger.
type TokenContract struct {
	Address  string    `gorm:"primaryKey;type:varchar(42)" json:"address"`
	Kind     TokenKind `gorm:"type:varchar(16);not null" json:"kind"`
	Deployer string    `gorm:"type:varchar(42);index;not null" json:"deployer"`
	Nonce    uint64    `gorm:"not null" json:"nonce"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type TokenBalance struct {
	Contract string `gorm:"primaryKey;type:varchar(42)" json:"contract"`
	TokenID  uint64 `gorm:"primaryKey;autoIncrement:false" json:"token_id"`
	Holder   string `gorm:"primaryKey;type:varchar(42)" json:"holder"`
	Amount   uint64 `gorm:"not null" json:"amount"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
