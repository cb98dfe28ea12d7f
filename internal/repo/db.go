package repo

import (
	"fmt"
	"strings"

	"cardroom-service/internal/config"
	"cardroom-service/internal/model"
	"cardroom-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Admin{},
		&model.Wallet{},
		&model.BillingLog{},
		&model.HandSettlement{},
		&model.GameRecord{},
		&model.Scene{},
		&model.RakeRule{},
	}
}

func dialector(conf config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(conf.Driver) {
	case "", "postgres", "postgresql":
		return postgres.Open(conf.DSN), nil
	case "mysql":
		return mysql.Open(conf.DSN), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(conf.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}

// Open connects and migrates; InitDB wraps it for the server process.
func Open(conf config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(conf)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func InitDB() {
	conf := config.GlobalConfig.Database
	var err error
	DB, err = Open(conf)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.String("driver", conf.Driver),
			zap.Error(err),
		)
	}
}
