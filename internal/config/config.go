package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Admin    AdminSeedConfig `mapstructure:"admin"`
	Wallet   WalletConfig    `mapstructure:"wallet"`
	Game     GameConfig      `mapstructure:"game"`
	Lobby    LobbyConfig     `mapstructure:"lobby"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

type WalletConfig struct {
	SignupBonus int64 `mapstructure:"signupBonus"`
}

type GameConfig struct {
	HandTimeoutSeconds      int     `mapstructure:"handTimeoutSeconds"`
	PokerTurnTimeoutSeconds int     `mapstructure:"pokerTurnTimeoutSeconds"`
	ReclaimSeconds          int     `mapstructure:"reclaimSeconds"`
	DoubleDownDealerBonus   bool    `mapstructure:"doubleDownDealerBonus"`
	AbandonPolicy           string  `mapstructure:"abandonPolicy"` // none, refund, forfeit
	DefaultMultiplier       float64 `mapstructure:"defaultMultiplier"`
	PokerAnte               int64   `mapstructure:"pokerAnte"`
	PokerMinRaise           int64   `mapstructure:"pokerMinRaise"`
	PokerMaxSeats           int     `mapstructure:"pokerMaxSeats"`
}

type LobbyConfig struct {
	MatcherIntervalMillis int `mapstructure:"matcherIntervalMillis"`
	QueueTimeoutSeconds   int `mapstructure:"queueTimeoutSeconds"`
	ActiveGameTTLSeconds  int `mapstructure:"activeGameTTLSeconds"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("jwt.expire", 72)
	v.SetDefault("wallet.signupBonus", 1000)

	v.SetDefault("game.handTimeoutSeconds", 60)
	v.SetDefault("game.pokerTurnTimeoutSeconds", 0)
	v.SetDefault("game.reclaimSeconds", 30)
	v.SetDefault("game.doubleDownDealerBonus", false)
	v.SetDefault("game.abandonPolicy", "none")
	v.SetDefault("game.defaultMultiplier", 1)
	v.SetDefault("game.pokerAnte", 10)
	v.SetDefault("game.pokerMinRaise", 20)
	v.SetDefault("game.pokerMaxSeats", 8)

	v.SetDefault("lobby.matcherIntervalMillis", 500)
	v.SetDefault("lobby.queueTimeoutSeconds", 180)
	v.SetDefault("lobby.activeGameTTLSeconds", 3600)
}

// LoadConfig reads .env (if present) and the YAML file; CARDROOM_* variables win,
// e.g. CARDROOM_GAME_ABANDONPOLICY=refund.
func LoadConfig(path string) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CARDROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
