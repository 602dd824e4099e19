package services

import (
	"context"
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// OperatorService manages operator and controller grants. The operator master
// is fixed by configuration and implicitly holds every role.
type OperatorService struct {
	Store  *Store
	Master common.Address
}

func NewOperatorService(store *Store, master common.Address) *OperatorService {
	return &OperatorService{Store: store, Master: master}
}

func (s *OperatorService) IsMaster(addr common.Address) bool {
	return s.Master != (common.Address{}) && addr == s.Master
}

func (s *OperatorService) AddOperator(ctx context.Context, caller, addr common.Address, role models.Role) error {
	if !s.IsMaster(caller) {
		return apperr.New(apperr.CodeOnlyOperatorMaster, caller.Hex())
	}
	if !role.Valid() {
		return apperr.Newf(apperr.CodeInvalidArgument, "unknown role %q", role)
	}
	if addr == (common.Address{}) {
		return apperr.New(apperr.CodeInvalidArgument, "zero address")
	}

	err := s.Store.Write(ctx, "operator.add", func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Operator{}).Where("address = ? AND role = ?", addr.Hex(), role).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Newf(apperr.CodeDuplicateAccount, "%s is already %s", addr.Hex(), role)
		}
		return tx.Create(&models.Operator{Address: addr.Hex(), Role: role, AddedBy: caller.Hex()}).Error
	})
	if err != nil {
		return err
	}
	log.Printf("🔑 [OPERATOR] %s granted %s", addr.Hex(), role)
	return nil
}

func (s *OperatorService) RemoveOperator(ctx context.Context, caller, addr common.Address, role models.Role) error {
	if !s.IsMaster(caller) {
		return apperr.New(apperr.CodeOnlyOperatorMaster, caller.Hex())
	}

	return s.Store.Write(ctx, "operator.remove", func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("address = ? AND role = ?", addr.Hex(), role).Delete(&models.Operator{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Newf(apperr.CodeInvalidArgument, "%s is not %s", addr.Hex(), role)
		}
		return nil
	})
}

func (s *OperatorService) HasRole(ctx context.Context, addr common.Address, role models.Role) (bool, error) {
	if s.IsMaster(addr) {
		return true, nil
	}
	var n int64
	err := s.Store.Read(ctx, "operator.has_role", func(tx *gorm.DB) error {
		return tx.Model(&models.Operator{}).Where("address = ? AND role = ?", addr.Hex(), role).Count(&n).Error
	})
	return n > 0, err
}

func (s *OperatorService) ListOperators(ctx context.Context) ([]models.Operator, error) {
	var ops []models.Operator
	err := s.Store.Read(ctx, "operator.list", func(tx *gorm.DB) error {
		return tx.Order("address ASC").Order("role ASC").Find(&ops).Error
	})
	return ops, err
}
