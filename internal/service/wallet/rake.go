package wallet

import (
	"encoding/json"
	"math"
	"strings"

	"cardroom-service/internal/model"

	"gorm.io/gorm"
)

type rakeSummary struct {
	RuleID   int64            `json:"ruleId,omitempty"`
	Total    int64            `json:"total"`
	PerUser  map[string]int64 `json:"perUser,omitempty"`
	Platform int64            `json:"platform"`
}

// loadRakeRule returns the enabled rule attached to the scene, or nil.
func loadRakeRule(tx *gorm.DB, sceneID int64) (*model.RakeRule, error) {
	if sceneID == 0 {
		return nil, nil
	}
	var scene model.Scene
	if err := tx.Where("id = ?", sceneID).Limit(1).Find(&scene).Error; err != nil {
		return nil, err
	}
	if scene.ID == 0 || scene.RakeRuleID == 0 {
		return nil, nil
	}
	var rule model.RakeRule
	if err := tx.Where("id = ?", scene.RakeRuleID).Limit(1).Find(&rule).Error; err != nil {
		return nil, err
	}
	if rule.ID == 0 || strings.EqualFold(rule.Status, "disabled") {
		return nil, nil
	}
	return &rule, nil
}

// calculateRake is the house cut of a positive poker net.
func calculateRake(rule *model.RakeRule, win int64) int64 {
	if rule == nil || win <= 0 {
		return 0
	}

	switch strings.ToLower(rule.Type) {
	case "ratio":
		var cfg struct {
			Ratio float64 `json:"ratio"`
			Cap   int64   `json:"cap"`
		}
		if err := json.Unmarshal(rule.ConfigJSON, &cfg); err != nil {
			return 0
		}
		return clampRake(int64(math.Round(float64(win)*cfg.Ratio)), win, cfg.Cap)
	case "fixed":
		var cfg struct {
			Amount int64 `json:"amount"`
		}
		if err := json.Unmarshal(rule.ConfigJSON, &cfg); err != nil {
			return 0
		}
		return clampRake(cfg.Amount, win, 0)
	case "ladder":
		type ladderStep struct {
			Min   int64   `json:"min"`
			Max   int64   `json:"max"`
			Ratio float64 `json:"ratio"`
			Value int64   `json:"value"`
		}
		var steps []ladderStep
		if err := json.Unmarshal(rule.ConfigJSON, &steps); err != nil {
			return 0
		}
		for _, step := range steps {
			inRange := (step.Min == 0 || win >= step.Min) &&
				(step.Max == 0 || win <= step.Max)
			if !inRange {
				continue
			}
			if step.Ratio > 0 {
				return clampRake(int64(math.Round(float64(win)*step.Ratio)), win, 0)
			}
			if step.Value > 0 {
				return clampRake(step.Value, win, 0)
			}
		}
	}
	return 0
}

func clampRake(value, win, cap int64) int64 {
	if value < 0 {
		value = 0
	}
	if cap > 0 && value > cap {
		value = cap
	}
	if value > win {
		return win
	}
	return value
}
