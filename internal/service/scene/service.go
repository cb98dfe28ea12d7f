package scene

import (
	"context"
	"fmt"
	"strings"

	"cardroom-service/internal/model"
	"cardroom-service/internal/service/game/cards"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"

	maxPokerSeats = 8
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type SceneListResult struct {
	Items []model.Scene
	Total int64
}

type SceneMutationParams struct {
	Name           string
	Kind           string
	SeatCount      int
	Stake          int64
	Multiplier     float64
	BotFillSeconds int
	SeparateSubnet bool
	Status         string
	RakeRuleID     int64
}

// ListScenes is the lobby view: enabled presets only.
func (s *Service) ListScenes(ctx context.Context) ([]model.Scene, error) {
	var scenes []model.Scene
	if err := s.db.WithContext(ctx).
		Where("status = ?", StatusEnabled).
		Order("stake ASC, id ASC").
		Find(&scenes).Error; err != nil {
		return nil, err
	}
	return scenes, nil
}

func (s *Service) AdminListScenes(ctx context.Context, page, size int) (*SceneListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.Scene{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var scenes []model.Scene
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.Scene{}).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&scenes).Error; err != nil {
			return nil, err
		}
	}

	return &SceneListResult{
		Items: scenes,
		Total: total,
	}, nil
}

func (s *Service) CreateScene(ctx context.Context, params SceneMutationParams) (*model.Scene, error) {
	params, err := validate(params)
	if err != nil {
		return nil, err
	}
	scene := model.Scene{
		Name:           params.Name,
		Kind:           params.Kind,
		SeatCount:      params.SeatCount,
		Stake:          params.Stake,
		Multiplier:     params.Multiplier,
		BotFillSeconds: params.BotFillSeconds,
		SeparateSubnet: params.SeparateSubnet,
		Status:         params.Status,
		RakeRuleID:     params.RakeRuleID,
	}
	if err := s.db.WithContext(ctx).Create(&scene).Error; err != nil {
		return nil, err
	}
	return &scene, nil
}

func (s *Service) UpdateScene(ctx context.Context, id int64, params SceneMutationParams) (*model.Scene, error) {
	params, err := validate(params)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":             params.Name,
		"kind":             params.Kind,
		"seat_count":       params.SeatCount,
		"stake":            params.Stake,
		"multiplier":       params.Multiplier,
		"bot_fill_seconds": params.BotFillSeconds,
		"separate_subnet":  params.SeparateSubnet,
		"status":           params.Status,
		"rake_rule_id":     params.RakeRuleID,
	}

	result := s.db.WithContext(ctx).
		Model(&model.Scene{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrSceneNotFound
	}

	var scene model.Scene
	if err := s.db.WithContext(ctx).First(&scene, id).Error; err != nil {
		return nil, err
	}
	return &scene, nil
}

// GetScene returns nil, nil when the preset does not exist.
func (s *Service) GetScene(ctx context.Context, id int64) (*model.Scene, error) {
	var scene model.Scene
	if err := s.db.WithContext(ctx).First(&scene, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.L().Error("failed to load scene", zap.Int64("sceneID", id), zap.Error(err))
		return nil, err
	}
	return &scene, nil
}

// Playable returns the preset only when it exists and is enabled.
func (s *Service) Playable(ctx context.Context, id int64) (*model.Scene, error) {
	scene, err := s.GetScene(ctx, id)
	if err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, appErr.ErrSceneNotFound
	}
	if scene.Status != StatusEnabled {
		return nil, appErr.ErrSceneDisabled
	}
	return scene, nil
}

func validate(params SceneMutationParams) (SceneMutationParams, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Kind = strings.ToLower(strings.TrimSpace(params.Kind))
	params.Status = strings.ToLower(strings.TrimSpace(params.Status))
	if params.Status == "" {
		params.Status = StatusEnabled
	}
	if params.Multiplier <= 0 {
		params.Multiplier = 1
	}

	switch {
	case params.Name == "":
		return params, fmt.Errorf("%w: name is required", appErr.ErrInvalidScene)
	case params.Stake <= 0:
		return params, fmt.Errorf("%w: stake must be > 0", appErr.ErrInvalidScene)
	case params.BotFillSeconds < 0:
		return params, fmt.Errorf("%w: botFillSeconds must be >= 0", appErr.ErrInvalidScene)
	case params.Status != StatusEnabled && params.Status != StatusDisabled:
		return params, fmt.Errorf("%w: status %q", appErr.ErrInvalidScene, params.Status)
	}

	switch cards.Kind(params.Kind) {
	case cards.KindBlackjack:
		if params.SeatCount == 0 {
			params.SeatCount = 1
		}
		if params.SeatCount != 1 {
			return params, fmt.Errorf("%w: blackjack is single-seat", appErr.ErrInvalidScene)
		}
	case cards.KindPoker:
		if params.SeatCount < 2 || params.SeatCount > maxPokerSeats {
			return params, fmt.Errorf("%w: poker needs 2-%d seats", appErr.ErrInvalidScene, maxPokerSeats)
		}
	default:
		return params, fmt.Errorf("%w: kind %q", appErr.ErrInvalidScene, params.Kind)
	}
	return params, nil
}
