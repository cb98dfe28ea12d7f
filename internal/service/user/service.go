package user

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cardroom-service/internal/model"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAdminUserPageSize = 20
	maxAdminUserPageSize     = 100

	StatusNormal = "normal"
	StatusBanned = "banned"

	MaxNicknameLength = 24
)

type Service struct {
	db *gorm.DB
}

type AdminListUsersFilter struct {
	Page            int
	Size            int
	Status          string
	NicknameKeyword string
}

type AdminListUsersResult struct {
	Items []model.User
	Total int64
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// NormalizeNickname trims the name and rejects empty, overlong or control-character names.
func NormalizeNickname(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", appErr.ErrInvalidNickname)
	}
	if utf8.RuneCountInString(name) > MaxNicknameLength {
		return "", fmt.Errorf("%w: longer than %d characters", appErr.ErrInvalidNickname, MaxNicknameLength)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: control character", appErr.ErrInvalidNickname)
		}
	}
	return name, nil
}

func (f *AdminListUsersFilter) sanitize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 {
		f.Size = defaultAdminUserPageSize
	}
	if f.Size > maxAdminUserPageSize {
		f.Size = maxAdminUserPageSize
	}
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.NicknameKeyword = strings.TrimSpace(f.NicknameKeyword)
}

func applyAdminUserFilters(db *gorm.DB, filter AdminListUsersFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("LOWER(status) = ?", filter.Status)
	}
	if filter.NicknameKeyword != "" {
		db = db.Where("nickname LIKE ?", "%"+filter.NicknameKeyword+"%")
	}
	return db
}

// GetProfile returns nil, nil for an unknown user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// EnsurePlayable gates starting or queueing for a game.
func (s *Service) EnsurePlayable(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErr.ErrUserNotFound
	}
	if strings.EqualFold(user.Status, StatusBanned) {
		return nil, appErr.ErrUserBanned
	}
	return user, nil
}

func (s *Service) UpdateNickname(ctx context.Context, userID, nickname string) (*model.User, error) {
	nickname, err := NormalizeNickname(nickname)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"nickname":   nickname,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, appErr.ErrUserNotFound
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) AdminListUsers(ctx context.Context, filter AdminListUsersFilter) (*AdminListUsersResult, error) {
	filter.sanitize()

	countQuery := applyAdminUserFilters(s.db.WithContext(ctx).Model(&model.User{}), filter)
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	result := &AdminListUsersResult{
		Items: make([]model.User, 0),
		Total: total,
	}
	if total == 0 {
		return result, nil
	}

	dataQuery := applyAdminUserFilters(s.db.WithContext(ctx).Model(&model.User{}), filter)
	if err := dataQuery.
		Order("created_at DESC").
		Limit(filter.Size).
		Offset((filter.Page - 1) * filter.Size).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) AdminGetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErr.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) AdminUpdateUserStatus(ctx context.Context, userID, status, reason string) (*model.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != StatusNormal && status != StatusBanned {
		return nil, appErr.ErrInvalidUserStatus
	}
	reason = strings.TrimSpace(reason)

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, appErr.ErrUserNotFound
	}

	logger.L().Info("admin updated user status",
		zap.String("userID", userID),
		zap.String("status", status),
		zap.String("reason", reason))

	return s.AdminGetUser(ctx, userID)
}
