package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardroom-service/internal/config"
	"cardroom-service/internal/model"
	"cardroom-service/internal/service/user"
	"cardroom-service/internal/service/wallet"
	pkgAuth "cardroom-service/pkg/auth"
	appErr "cardroom-service/pkg/errors"
	"cardroom-service/pkg/logger"
	"cardroom-service/pkg/utils/random"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	guestPrefix      = "Guest-"
	guestWindow      = time.Minute
	guestLimitPerIP  = 10
	guestCodeLength  = 4
	signupBonusLabel = "signup"
)

type Service struct {
	db      *gorm.DB
	rdb     *redis.Client
	wallets *wallet.Service
	users   *user.Service
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
	Balance  int64      `json:"balance"`
}

// NewService wires guest login. rdb may be nil, which disables the per-IP limit.
func NewService(db *gorm.DB, rdb *redis.Client, wallets *wallet.Service, users *user.Service) *Service {
	return &Service{
		db:      db,
		rdb:     rdb,
		wallets: wallets,
		users:   users,
	}
}

// GuestLogin creates a fresh player with the configured signup bonus and returns a token.
// An empty nickname gets a generated Guest-XXXX name.
func (s *Service) GuestLogin(ctx context.Context, nickname, clientIP string) (*LoginResult, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = guestPrefix + random.Code(guestCodeLength)
	}
	nickname, err := user.NormalizeNickname(nickname)
	if err != nil {
		return nil, err
	}
	if err := s.throttle(ctx, clientIP); err != nil {
		return nil, err
	}

	u := model.User{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Status:   user.StatusNormal,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}

	var balance int64
	if bonus := config.GlobalConfig.Wallet.SignupBonus; bonus > 0 {
		w, err := s.wallets.Credit(ctx, u.ID, wallet.CreditRequest{Amount: bonus, Remark: signupBonusLabel})
		if err != nil {
			return nil, fmt.Errorf("signup bonus: %w", err)
		}
		balance = w.Balance
	}

	logger.L().Info("guest registered",
		zap.String("userID", u.ID),
		zap.String("nickname", u.Nickname),
		zap.String("ip", clientIP),
	)
	return s.issue(u, balance)
}

// Refresh reissues a token for an existing, non-banned player.
func (s *Service) Refresh(ctx context.Context, userID string) (*LoginResult, error) {
	u, err := s.users.EnsurePlayable(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.wallets.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(*u, balance)
}

func (s *Service) issue(u model.User, balance int64) (*LoginResult, error) {
	token, err := pkgAuth.GenerateToken(u.ID, u.Nickname)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:    token,
		ExpireAt: time.Now().Add(pkgAuth.TTL()),
		User:     u,
		Balance:  balance,
	}, nil
}

func (s *Service) throttle(ctx context.Context, clientIP string) error {
	if s.rdb == nil || clientIP == "" {
		return nil
	}
	key := buildGuestKey(clientIP)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		s.rdb.Expire(ctx, key, guestWindow)
	}
	if n > guestLimitPerIP {
		return appErr.ErrTooManyRequests
	}
	return nil
}

func buildGuestKey(ip string) string {
	return fmt.Sprintf("auth:guest:%s", ip)
}
