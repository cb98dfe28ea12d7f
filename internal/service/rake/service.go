package rake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cardroom-service/internal/model"
	appErr "cardroom-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type ListResult struct {
	Items []model.RakeRule
	Total int64
}

type MutationParams struct {
	Name        string
	Type        string
	Remark      string
	Status      string
	ConfigJSON  []byte
	EffectiveAt *time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context, page, size int) (*ListResult, error) {
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
		Model(&model.RakeRule{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.RakeRule
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.RakeRule{}).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.RakeRule, error) {
	var rule model.RakeRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrRakeRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (s *Service) Create(ctx context.Context, params MutationParams) (*model.RakeRule, error) {
	params, err := normalize(params)
	if err != nil {
		return nil, err
	}
	rule := model.RakeRule{
		Name:        params.Name,
		Type:        params.Type,
		Remark:      params.Remark,
		Status:      params.Status,
		ConfigJSON:  datatypes.JSON(params.ConfigJSON),
		EffectiveAt: params.EffectiveAt,
	}
	if err := s.db.WithContext(ctx).Create(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) Update(ctx context.Context, id int64, params MutationParams) (*model.RakeRule, error) {
	params, err := normalize(params)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":         params.Name,
		"type":         params.Type,
		"remark":       params.Remark,
		"status":       params.Status,
		"config_json":  datatypes.JSON(params.ConfigJSON),
		"effective_at": params.EffectiveAt,
	}

	result := s.db.WithContext(ctx).
		Model(&model.RakeRule{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrRakeRuleNotFound
	}
	return s.Get(ctx, id)
}

// normalize checks that the config parses for its type, so settlement never sees a rule it cannot read.
func normalize(params MutationParams) (MutationParams, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Remark = strings.TrimSpace(params.Remark)
	params.Type = strings.ToLower(strings.TrimSpace(params.Type))
	params.Status = strings.ToLower(strings.TrimSpace(params.Status))
	if params.Status == "" {
		params.Status = "enabled"
	}
	if params.Status != "enabled" && params.Status != "disabled" {
		return params, fmt.Errorf("%w: status %q", appErr.ErrInvalidRakeRule, params.Status)
	}

	var target interface{}
	switch params.Type {
	case "ratio", "fixed":
		target = &map[string]json.Number{}
	case "ladder":
		target = &[]map[string]json.Number{}
	default:
		return params, fmt.Errorf("%w: type %q", appErr.ErrInvalidRakeRule, params.Type)
	}
	if err := json.Unmarshal(params.ConfigJSON, target); err != nil {
		return params, fmt.Errorf("%w: config: %v", appErr.ErrInvalidRakeRule, err)
	}
	return params, nil
}
