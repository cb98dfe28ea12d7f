package service

import (
	"context"
	"time"

	"cardroom-service/internal/config"
	"cardroom-service/internal/service/admin"
	"cardroom-service/internal/service/auth"
	"cardroom-service/internal/service/game"
	"cardroom-service/internal/service/lobby"
	"cardroom-service/internal/service/rake"
	"cardroom-service/internal/service/ranking"
	"cardroom-service/internal/service/scene"
	"cardroom-service/internal/service/user"
	"cardroom-service/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game    *game.Service
	Lobby   *lobby.Service
	Locker  *lobby.RedisLocker
	Scene   *scene.Service
	Rake    *rake.Service
	Ranking *ranking.Service
	Auth    *auth.Service
	User    *user.Service
	Wallet  *wallet.Service
	Admin   *admin.Service
}

// GameConfig maps the file settings onto the engine's configuration.
func GameConfig(c config.GameConfig) game.Config {
	cfg := game.DefaultConfig()
	if c.HandTimeoutSeconds > 0 {
		cfg.HandTimeout = time.Duration(c.HandTimeoutSeconds) * time.Second
	}
	cfg.PokerTurnTimeout = time.Duration(c.PokerTurnTimeoutSeconds) * time.Second
	if c.ReclaimSeconds > 0 {
		cfg.ReclaimAfter = time.Duration(c.ReclaimSeconds) * time.Second
	}
	cfg.DoubleDownDealerBonus = c.DoubleDownDealerBonus
	cfg.AbandonPolicy = game.ParseAbandonPolicy(c.AbandonPolicy)
	if c.DefaultMultiplier > 0 {
		cfg.DefaultMultiplier = c.DefaultMultiplier
	}
	if c.PokerAnte >= 0 {
		cfg.PokerAnte = c.PokerAnte
	}
	if c.PokerMinRaise > 0 {
		cfg.PokerMinRaise = c.PokerMinRaise
	}
	if c.PokerMaxSeats > 0 {
		cfg.PokerMaxSeats = c.PokerMaxSeats
	}
	return cfg
}

func LobbyConfig(c config.LobbyConfig) lobby.Config {
	cfg := lobby.DefaultConfig()
	if c.MatcherIntervalMillis > 0 {
		cfg.MatcherInterval = time.Duration(c.MatcherIntervalMillis) * time.Millisecond
	}
	if c.QueueTimeoutSeconds > 0 {
		cfg.QueueTimeout = time.Duration(c.QueueTimeoutSeconds) * time.Second
		if cfg.QueueMemberTTL < cfg.QueueTimeout {
			cfg.QueueMemberTTL = cfg.QueueTimeout + time.Minute
		}
	}
	return cfg
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	conf := config.GlobalConfig

	wallets := wallet.NewService(db)
	users := user.NewService(db)
	scenes := scene.NewService(db)
	ranks := ranking.NewService(rdb)
	locker := lobby.NewRedisLocker(rdb, time.Duration(conf.Lobby.ActiveGameTTLSeconds)*time.Second)

	games := game.NewService(
		GameConfig(conf.Game),
		game.ChainLedger(wallets, ranks),
		game.WithSessionLocker(locker),
	)

	return &Container{
		Admin:   admin.NewService(db),
		Auth:    auth.NewService(db, rdb, wallets, users),
		Game:    games,
		Lobby:   lobby.NewService(rdb, games, scenes, wallets, locker, LobbyConfig(conf.Lobby)),
		Locker:  locker,
		Rake:    rake.NewService(db),
		Ranking: ranks,
		Scene:   scenes,
		User:    users,
		Wallet:  wallets,
	}
}

func (c *Container) Start(ctx context.Context) error {
	if err := c.Admin.EnsureDefaultAdmin(ctx); err != nil {
		return err
	}
	c.Lobby.Run(ctx)
	return nil
}

// Stop waits for the matcher (ctx passed to Start must already be cancelled) and drops live sessions.
func (c *Container) Stop() {
	c.Lobby.Wait()
	c.Game.Shutdown()
}
