package services

import (
	"context"
	"strings"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type CollectionService struct {
	Store  *Store
	Ledger TokenLedger
}

func NewCollectionService(store *Store, ledger TokenLedger) *CollectionService {
	return &CollectionService{Store: store, Ledger: ledger}
}

type RegisterCollectionInput struct {
	Name          string
	TokenContract common.Address
	Creator       common.Address
	Kind          models.TokenKind
	Collectable   bool
}

func loadCollection(tx *gorm.DB, id uint64) (*models.Collection, error) {
	var col models.Collection
	err := tx.First(&col, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.Newf(apperr.CodeInvalidCollectionID, "collection %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// requireFungible loads a collection that must exist, be active and hold multi tokens.
// Season wiring and reward collections go through it.
func requireFungible(tx *gorm.DB, id uint64, needCollectable bool) (*models.Collection, error) {
	col, err := loadCollection(tx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case !col.Active:
		return nil, apperr.Newf(apperr.CodeInvalidCollectionID, "collection %d is inactive", id)
	case col.Kind != models.TokenKindFungible:
		return nil, apperr.Newf(apperr.CodeInvalidCollectionID, "collection %d is not fungible", id)
	case needCollectable && !col.Collectable:
		return nil, apperr.Newf(apperr.CodeInvalidCollectionID, "collection %d is not collectable", id)
	}
	return col, nil
}

func collectionContract(tx *gorm.DB, id uint64) (common.Address, error) {
	col, err := loadCollection(tx, id)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(col.TokenContract), nil
}

func (s *CollectionService) checkHandle(tx *gorm.DB, handle common.Address, kind models.TokenKind, exceptID uint64) error {
	var taken int64
	if err := tx.Model(&models.Collection{}).
		Where("token_contract = ? AND id <> ?", handle.Hex(), exceptID).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return apperr.Newf(apperr.CodeAlreadyExistTokenContract, "%s", handle.Hex())
	}

	ok, err := s.Ledger.SupportsKind(tx, handle, kind)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.CodeInvalidTokenContract, "%s does not implement %s", handle.Hex(), kind)
	}
	return nil
}

// Register allocates the next collection id for a token contract. New collections start active.
func (s *CollectionService) Register(ctx context.Context, in RegisterCollectionInput) (*models.Collection, error) {
	if !in.Kind.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown token kind %q", in.Kind)
	}

	var col models.Collection
	err := s.Store.Write(ctx, "collection.register", func(tx *gorm.DB) error {
		if err := s.checkHandle(tx, in.TokenContract, in.Kind, 0); err != nil {
			return err
		}

		id, err := nextID(tx, &models.Collection{})
		if err != nil {
			return err
		}

		name := strings.TrimSpace(in.Name)
		col = models.Collection{
			ID:            id,
			Name:          name,
			Slug:          slug.Make(name),
			TokenContract: in.TokenContract.Hex(),
			Creator:       in.Creator.Hex(),
			Kind:          in.Kind,
			Active:        true,
			Collectable:   in.Collectable,
		}
		return tx.Create(&col).Error
	})
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (s *CollectionService) update(ctx context.Context, op string, id uint64, column string, value any) error {
	return s.Store.Write(ctx, op, func(tx *gorm.DB) error {
		if _, err := loadCollection(tx, id); err != nil {
			return err
		}
		return tx.Model(&models.Collection{}).Where("id = ?", id).Update(column, value).Error
	})
}

func (s *CollectionService) SetActive(ctx context.Context, id uint64, active bool) error {
	return s.update(ctx, "collection.set_active", id, "active", active)
}

func (s *CollectionService) SetCreator(ctx context.Context, id uint64, creator common.Address) error {
	return s.update(ctx, "collection.set_creator", id, "creator", creator.Hex())
}

func (s *CollectionService) SetCollectable(ctx context.Context, id uint64, collectable bool) error {
	return s.update(ctx, "collection.set_collectable", id, "collectable", collectable)
}

// SetTokenContract rebinds a collection to another contract of the same kind.
func (s *CollectionService) SetTokenContract(ctx context.Context, id uint64, handle common.Address) error {
	return s.Store.Write(ctx, "collection.set_token_contract", func(tx *gorm.DB) error {
		col, err := loadCollection(tx, id)
		if err != nil {
			return err
		}
		if err := s.checkHandle(tx, handle, col.Kind, id); err != nil {
			return err
		}
		return tx.Model(&models.Collection{}).Where("id = ?", id).Update("token_contract", handle.Hex()).Error
	})
}

// IsActive reports false for unknown ids.
func (s *CollectionService) IsActive(ctx context.Context, id uint64) (bool, error) {
	var active bool
	err := s.Store.Read(ctx, "collection.is_active", func(tx *gorm.DB) error {
		col, err := loadCollection(tx, id)
		if apperr.CodeOf(err) == apperr.CodeInvalidCollectionID {
			return nil
		}
		if err != nil {
			return err
		}
		active = col.Active
		return nil
	})
	return active, err
}

func (s *CollectionService) GetKind(ctx context.Context, id uint64) (models.TokenKind, error) {
	col, err := s.GetCollection(ctx, id)
	if err != nil {
		return "", err
	}
	return col.Kind, nil
}

func (s *CollectionService) GetCollection(ctx context.Context, id uint64) (*models.Collection, error) {
	var col *models.Collection
	err := s.Store.Read(ctx, "collection.get", func(tx *gorm.DB) error {
		var err error
		col, err = loadCollection(tx, id)
		return err
	})
	return col, err
}

// GetBySlug returns the lowest-id collection with the slug.
func (s *CollectionService) GetBySlug(ctx context.Context, name string) (*models.Collection, error) {
	var col models.Collection
	err := s.Store.Read(ctx, "collection.get_by_slug", func(tx *gorm.DB) error {
		err := tx.Where("slug = ?", slug.Make(name)).Order("id ASC").First(&col).Error
		if isNotFound(err) {
			return apperr.Newf(apperr.CodeInvalidCollectionID, "no collection %q", name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (s *CollectionService) List(ctx context.Context) ([]models.Collection, error) {
	var cols []models.Collection
	err := s.Store.Read(ctx, "collection.list", func(tx *gorm.DB) error {
		return tx.Order("id ASC").Find(&cols).Error
	})
	return cols, err
}
