package wallet

import (
	"encoding/json"
	"time"

	"cardroom-service/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

// walletBook caches row-locked wallets for the length of one transaction.
type walletBook struct {
	tx      *gorm.DB
	entries map[string]*walletEntry
}

type walletEntry struct {
	wallet *model.Wallet
	exists bool
}

func newWalletBook(tx *gorm.DB) *walletBook {
	return &walletBook{
		tx:      tx,
		entries: make(map[string]*walletEntry),
	}
}

func (wb *walletBook) Ensure(userID string) (*model.Wallet, error) {
	if entry, ok := wb.entries[userID]; ok {
		return entry.wallet, nil
	}

	wallet := &model.Wallet{}
	err := wb.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(wallet).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		wallet = &model.Wallet{UserID: userID}
	}

	wb.entries[userID] = &walletEntry{wallet: wallet, exists: err == nil}
	return wallet, nil
}

// Apply moves delta into the wallet and keeps the win/loss totals.
func (wb *walletBook) Apply(userID string, delta int64) (*model.Wallet, error) {
	wallet, err := wb.Ensure(userID)
	if err != nil {
		return nil, err
	}
	wallet.Balance += delta
	switch {
	case delta > 0:
		wallet.TotalWin += delta
	case delta < 0:
		wallet.TotalLoss += -delta
	}
	return wallet, nil
}

func (wb *walletBook) SaveAll(now time.Time) error {
	for _, entry := range wb.entries {
		entry.wallet.UpdatedAt = now
		var err error
		if entry.exists {
			err = wb.tx.Save(entry.wallet).Error
		} else {
			err = wb.tx.Create(entry.wallet).Error
			if err == nil {
				entry.exists = true
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
