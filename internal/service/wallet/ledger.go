package wallet

import (
	"context"
	"fmt"
	"time"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/game/cards"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlatformUserID owns the platform_income rows.
const PlatformUserID = "platform"

var _ game.Ledger = (*Service)(nil)

// Settle books one blackjack hand. Bots play on house money and are not booked.
func (s *Service) Settle(ctx context.Context, req game.SettleRequest) error {
	if req.IsBot {
		return nil
	}
	if req.SessionID == "" || req.PlayerID == "" {
		return fmt.Errorf("%w: session and player are required", appErr.ErrSettlementValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.HandSettlement{}).
			Where("session_id = ? AND hand_index = ?", req.SessionID, req.HandIndex).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return appErr.ErrHandAlreadySettled
		}

		now := time.Now()
		book := newWalletBook(tx)
		wallet, err := book.Apply(req.PlayerID, req.Delta)
		if err != nil {
			return err
		}
		if err := book.SaveAll(now); err != nil {
			return err
		}

		hand := model.HandSettlement{
			SessionID: req.SessionID,
			HandIndex: req.HandIndex,
			UserID:    req.PlayerID,
			Stake:     req.Stake,
			Delta:     req.Delta,
			Outcome:   string(req.Outcome),
			CreatedAt: now,
		}
		if err := tx.Create(&hand).Error; err != nil {
			return err
		}

		sessionID := req.SessionID
		log := model.BillingLog{
			UserID:       req.PlayerID,
			Type:         string(req.Outcome),
			Delta:        req.Delta,
			BalanceAfter: wallet.Balance,
			SessionID:    &sessionID,
			MetaJSON: mustJSON(map[string]interface{}{
				"hand":  req.HandIndex,
				"stake": req.Stake,
			}),
			CreatedAt: now,
		}
		return tx.Create(&log).Error
	})
}

// Finish records the session result exactly once. Poker nets are booked here, less rake;
// blackjack hands were already booked by Settle.
func (s *Service) Finish(ctx context.Context, req game.FinishRequest) error {
	if req.SessionID == "" {
		return fmt.Errorf("%w: session is required", appErr.ErrSettlementValidation)
	}
	if req.Kind == cards.KindPoker {
		var sum int64
		for _, r := range req.Results {
			sum += r.Net
		}
		if sum != 0 {
			return fmt.Errorf("%w: poker nets sum to %d", appErr.ErrSettlementValidation, sum)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.GameRecord
		if err := tx.Where("session_id = ?", req.SessionID).Limit(1).Find(&record).Error; err != nil {
			return err
		}
		if record.EndedAt != nil {
			return appErr.ErrGameAlreadyFinished
		}
		exists := record.SessionID != ""

		now := time.Now()
		summary := rakeSummary{PerUser: map[string]int64{}}
		if req.Kind == cards.KindPoker {
			rule, err := loadRakeRule(tx, req.SceneID)
			if err != nil {
				return err
			}
			if rule != nil {
				summary.RuleID = rule.ID
			}
			if err := s.bookPokerNets(tx, req, rule, &summary, now); err != nil {
				return err
			}
		}

		record.SessionID = req.SessionID
		record.Kind = string(req.Kind)
		record.SceneID = req.SceneID
		record.WinnerName = req.WinnerName
		record.WinnerID = req.WinnerID
		record.ResultJSON = mustJSON(req.Results)
		record.RakeJSON = mustJSON(summary)
		record.EndedAt = &now
		if !exists {
			record.CreatedAt = now
			return tx.Create(&record).Error
		}
		return tx.Save(&record).Error
	})
	if err != nil {
		return err
	}

	logger.L().Info("game record saved",
		zap.String("session", req.SessionID),
		zap.String("kind", string(req.Kind)),
		zap.String("winner", req.WinnerName),
	)
	return nil
}

func (s *Service) bookPokerNets(tx *gorm.DB, req game.FinishRequest, rule *model.RakeRule, summary *rakeSummary, now time.Time) error {
	book := newWalletBook(tx)
	sessionID := req.SessionID
	var logs []model.BillingLog

	for _, r := range req.Results {
		if r.IsBot || r.Net == 0 {
			continue
		}
		rake := calculateRake(rule, r.Net)
		wallet, err := book.Apply(r.PlayerID, r.Net-rake)
		if err != nil {
			return err
		}

		kind := string(game.OutcomeWin)
		if r.Net < 0 {
			kind = string(game.OutcomeLose)
		}
		logs = append(logs, model.BillingLog{
			UserID:       r.PlayerID,
			Type:         kind,
			Delta:        r.Net,
			BalanceAfter: wallet.Balance + rake,
			SessionID:    &sessionID,
			MetaJSON:     mustJSON(map[string]interface{}{"hand": r.Hand}),
			CreatedAt:    now,
		})
		if rake == 0 {
			continue
		}

		wallet.TotalRake += rake
		summary.Total += rake
		summary.PerUser[r.PlayerID] = rake
		logs = append(logs, model.BillingLog{
			UserID:       r.PlayerID,
			Type:         "rake",
			Delta:        -rake,
			BalanceAfter: wallet.Balance,
			SessionID:    &sessionID,
			MetaJSON:     mustJSON(map[string]interface{}{"ruleId": summary.RuleID}),
			CreatedAt:    now,
		})
	}

	if summary.Total > 0 {
		// Rake is income, not a win, so the platform wallet only moves its balance.
		platform, err := book.Ensure(PlatformUserID)
		if err != nil {
			return err
		}
		platform.Balance += summary.Total
		summary.Platform = summary.Total
		logs = append(logs, model.BillingLog{
			UserID:       PlatformUserID,
			Type:         "platform_income",
			Delta:        summary.Total,
			BalanceAfter: platform.Balance,
			SessionID:    &sessionID,
			MetaJSON:     mustJSON(summary.PerUser),
			CreatedAt:    now,
		})
	}

	if err := book.SaveAll(now); err != nil {
		return err
	}
	if len(logs) > 0 {
		return tx.Create(&logs).Error
	}
	return nil
}
