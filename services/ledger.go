package services

import (
	"context"
	"math/bits"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenLedger is the token collaborator the season, gate and settlement engines
// call into. Every call runs inside the caller's transaction.
type TokenLedger interface {
	Deploy(tx *gorm.DB, kind models.TokenKind, deployer common.Address) (common.Address, error)
	SupportsKind(tx *gorm.DB, contract common.Address, kind models.TokenKind) (bool, error)
	Mint(tx *gorm.DB, contract, to common.Address, tokenID, amount uint64) error
	Burn(tx *gorm.DB, contract, from common.Address, tokenID, amount uint64) error
	BalanceOf(tx *gorm.DB, contract, holder common.Address, tokenID uint64) (uint64, error)
	BalanceOfBatch(tx *gorm.DB, contract common.Address, holders []common.Address, tokenIDs []uint64) ([]uint64, error)
}

// GormLedger keeps token contracts and balances in the same database as the engines.
type GormLedger struct{}

func NewGormLedger() *GormLedger { return &GormLedger{} }

// Deploy derives the contract handle the same way a chain would: from the deployer and its nonce.
func (GormLedger) Deploy(tx *gorm.DB, kind models.TokenKind, deployer common.Address) (common.Address, error) {
	if !kind.Valid() {
		return common.Address{}, apperr.Newf(apperr.CodeInvalidArgument, "unknown token kind %q", kind)
	}

	var nonce int64
	if err := tx.Model(&models.TokenContract{}).Where("deployer = ?", deployer.Hex()).Count(&nonce).Error; err != nil {
		return common.Address{}, err
	}

	addr := crypto.CreateAddress(deployer, uint64(nonce))
	contract := models.TokenContract{
		Address:  addr.Hex(),
		Kind:     kind,
		Deployer: deployer.Hex(),
		Nonce:    uint64(nonce),
	}
	if err := tx.Create(&contract).Error; err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (GormLedger) SupportsKind(tx *gorm.DB, contract common.Address, kind models.TokenKind) (bool, error) {
	var c models.TokenContract
	err := tx.First(&c, "address = ?", contract.Hex()).Error
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Kind == kind, nil
}

func (l GormLedger) Mint(tx *gorm.DB, contract, to common.Address, tokenID, amount uint64) error {
	if amount == 0 {
		return apperr.New(apperr.CodeInvalidArgument, "mint amount is zero")
	}
	if to == (common.Address{}) {
		return apperr.New(apperr.CodeInvalidArgument, "mint to zero address")
	}

	c, err := l.contract(tx, contract)
	if err != nil {
		return err
	}

	if c.Kind == models.TokenKindNonFungible {
		if amount != 1 {
			return apperr.Newf(apperr.CodeInvalidArgument, "non-fungible mint amount %d", amount)
		}
		var minted int64
		if err := tx.Model(&models.TokenBalance{}).
			Where("contract = ? AND token_id = ? AND amount > 0", c.Address, tokenID).
			Count(&minted).Error; err != nil {
			return err
		}
		if minted > 0 {
			return apperr.Newf(apperr.CodeAlreadyMinted, "token %d", tokenID)
		}
	}

	bal, err := l.balanceRow(tx, c.Address, to.Hex(), tokenID)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(bal.Amount, amount, 0)
	if carry != 0 {
		return apperr.Newf(apperr.CodeInvalidArgument, "balance overflow for token %d", tokenID)
	}
	bal.Amount = sum

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract"}, {Name: "token_id"}, {Name: "holder"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&bal).Error
}

func (l GormLedger) Burn(tx *gorm.DB, contract, from common.Address, tokenID, amount uint64) error {
	if amount == 0 {
		return apperr.New(apperr.CodeInvalidArgument, "burn amount is zero")
	}

	c, err := l.contract(tx, contract)
	if err != nil {
		return err
	}

	bal, err := l.balanceRow(tx, c.Address, from.Hex(), tokenID)
	if err != nil {
		return err
	}
	if bal.Amount < amount {
		return apperr.Newf(apperr.CodeInvalidArgument, "insufficient balance for token %d: have %d, burn %d", tokenID, bal.Amount, amount)
	}

	return tx.Model(&models.TokenBalance{}).
		Where("contract = ? AND token_id = ? AND holder = ?", c.Address, tokenID, bal.Holder).
		Update("amount", bal.Amount-amount).Error
}

func (l GormLedger) BalanceOf(tx *gorm.DB, contract, holder common.Address, tokenID uint64) (uint64, error) {
	c, err := l.contract(tx, contract)
	if err != nil {
		return 0, err
	}
	bal, err := l.balanceRow(tx, c.Address, holder.Hex(), tokenID)
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

func (l GormLedger) BalanceOfBatch(tx *gorm.DB, contract common.Address, holders []common.Address, tokenIDs []uint64) ([]uint64, error) {
	if len(holders) != len(tokenIDs) {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "holders and ids length mismatch: %d != %d", len(holders), len(tokenIDs))
	}
	c, err := l.contract(tx, contract)
	if err != nil {
		return nil, err
	}

	out := make([]uint64, len(holders))
	for i := range holders {
		bal, err := l.balanceRow(tx, c.Address, holders[i].Hex(), tokenIDs[i])
		if err != nil {
			return nil, err
		}
		out[i] = bal.Amount
	}
	return out, nil
}

func (GormLedger) contract(tx *gorm.DB, addr common.Address) (*models.TokenContract, error) {
	var c models.TokenContract
	err := tx.First(&c, "address = ?", addr.Hex()).Error
	if isNotFound(err) {
		return nil, apperr.Newf(apperr.CodeInvalidTokenContract, "no contract at %s", addr.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// balanceRow returns the stored balance, or a zero row ready to be upserted.
func (GormLedger) balanceRow(tx *gorm.DB, contract, holder string, tokenID uint64) (models.TokenBalance, error) {
	var bal models.TokenBalance
	err := tx.Where("contract = ? AND token_id = ? AND holder = ?", contract, tokenID, holder).First(&bal).Error
	if isNotFound(err) {
		return models.TokenBalance{Contract: contract, TokenID: tokenID, Holder: holder}, nil
	}
	return bal, err
}

// LedgerService exposes the ledger to operators: deploying token contracts and
// minting monster tokens or gate keys into hunters' hands.
type LedgerService struct {
	Store  *Store
	Ledger TokenLedger
}

func NewLedgerService(store *Store, ledger TokenLedger) *LedgerService {
	return &LedgerService{Store: store, Ledger: ledger}
}

func (s *LedgerService) DeployContract(ctx context.Context, kind models.TokenKind, deployer common.Address) (common.Address, error) {
	var addr common.Address
	err := s.Store.Write(ctx, "ledger.deploy", func(tx *gorm.DB) error {
		var err error
		addr, err = s.Ledger.Deploy(tx, kind, deployer)
		return err
	})
	return addr, err
}

// MintTo mints into a registered collection.
func (s *LedgerService) MintTo(ctx context.Context, collectionID uint64, to common.Address, tokenID, amount uint64) error {
	return s.Store.Write(ctx, "ledger.mint", func(tx *gorm.DB) error {
		col, err := loadCollection(tx, collectionID)
		if err != nil {
			return err
		}
		return s.Ledger.Mint(tx, common.HexToAddress(col.TokenContract), to, tokenID, amount)
	})
}

func (s *LedgerService) BalanceOf(ctx context.Context, collectionID uint64, holder common.Address, tokenID uint64) (uint64, error) {
	var amount uint64
	err := s.Store.Read(ctx, "ledger.balance_of", func(tx *gorm.DB) error {
		col, err := loadCollection(tx, collectionID)
		if err != nil {
			return err
		}
		amount, err = s.Ledger.BalanceOf(tx, common.HexToAddress(col.TokenContract), holder, tokenID)
		return err
	})
	return amount, err
}
