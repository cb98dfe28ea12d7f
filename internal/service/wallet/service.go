package wallet

import (
	"context"
	"fmt"
	"time"

	"cardroom-service/internal/model"
	appErr "cardroom-service/pkg/errors"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type CreditRequest struct {
	Amount int64
	Remark string
}

type BillingPage struct {
	Items []model.BillingLog
	Total int64
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Credit tops up a wallet and writes a recharge log. Used for the signup bonus and by operators.
func (s *Service) Credit(ctx context.Context, userID string, req CreditRequest) (*model.Wallet, error) {
	if userID == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", appErr.ErrInvalidWalletPayload)
	}

	var out *model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		book := newWalletBook(tx)
		wallet, err := book.Ensure(userID)
		if err != nil {
			return err
		}
		wallet.Balance += req.Amount
		wallet.TotalIn += req.Amount
		if err := book.SaveAll(now); err != nil {
			return err
		}
		log := model.BillingLog{
			UserID:       userID,
			Type:         "recharge",
			Delta:        req.Amount,
			BalanceAfter: wallet.Balance,
			MetaJSON:     mustJSON(map[string]interface{}{"remark": req.Remark}),
			CreatedAt:    now,
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}
		out = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListBilling(ctx context.Context, userID string, page, size int) (*BillingPage, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	query := s.db.WithContext(ctx).Model(&model.BillingLog{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.BillingLog
	if total > 0 {
		if err := query.Order("id DESC").
			Limit(size).
			Offset((page - 1) * size).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}
	return &BillingPage{Items: items, Total: total}, nil
}
