package model

import (
	"time"

	"gorm.io/datatypes"
)

// Users & operators

type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Nickname  string `gorm:"size:64;not null"`
	Status    string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wallet & billing

type Wallet struct {
	UserID    string `gorm:"primaryKey;size:36"`
	Balance   int64
	TotalIn   int64
	TotalWin  int64
	TotalLoss int64
	TotalRake int64
	UpdatedAt time.Time
}

type BillingLog struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"size:36;index"`
	Type         string // win/lose/push/refund/forfeit/rake/platform_income/recharge
	Delta        int64
	BalanceAfter int64
	SessionID    *string `gorm:"size:36;index"`
	MetaJSON     datatypes.JSON
	CreatedAt    time.Time
}

// HandSettlement is written once per blackjack hand; the unique index rejects a replay.
type HandSettlement struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:36;uniqueIndex:idx_hand_settlement"`
	HandIndex int    `gorm:"uniqueIndex:idx_hand_settlement"`
	UserID    string `gorm:"size:36"`
	Stake     int64
	Delta     int64
	Outcome   string
	CreatedAt time.Time
}

// GameRecord is the terminal outcome of one session. EndedAt is set exactly once.
type GameRecord struct {
	SessionID  string `gorm:"primaryKey;size:36"`
	Kind       string `gorm:"size:16;index"`
	SceneID    int64
	WinnerName string
	WinnerID   *string `gorm:"size:36"`
	ResultJSON datatypes.JSON
	RakeJSON   datatypes.JSON
	CreatedAt  time.Time
	EndedAt    *time.Time
}

// Table presets

// Scene is a lobby table preset: game kind, stake and seat count.
type Scene struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"size:64"`
	Kind           string `gorm:"size:16;default:poker;not null"`
	SeatCount      int
	Stake          int64
	Multiplier     float64 `gorm:"default:1"`
	BotFillSeconds int
	SeparateSubnet bool
	Status         string `gorm:"default:enabled"` // enabled/disabled
	RakeRuleID     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RakeRule struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:128"`
	Type        string // ratio/fixed/ladder
	Remark      string `gorm:"size:255"`
	Status      string `gorm:"default:enabled"` // enabled/disabled
	ConfigJSON  datatypes.JSON
	EffectiveAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
