package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	Scheduler SchedulerConfig
	ScoreFeed ScoreFeedConfig
	Payout    PayoutConfig
	Leagues   map[string]LeagueConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration for operator sessions
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// SchedulerConfig holds the shared secret the cron triggers authenticate with
type SchedulerConfig struct {
	APIKey string
}

// ScoreFeedConfig holds external score provider configuration
type ScoreFeedConfig struct {
	PrimaryURL  string
	FallbackURL string
	APIKey      string
	TimeoutSecs int
	MockFeed    bool
}

// PayoutConfig holds token payout gateway configuration
type PayoutConfig struct {
	GatewayURL  string
	APIKey      string
	TimeoutSecs int
	MockGateway bool
}

// LeagueConfig holds one league's purchase-window schedule, selection bounds
// and raffle economics. Open/close hours are league-local; TZOffsetHours maps
// them to UTC.
type LeagueConfig struct {
	DisplayName      string
	OpenHourLocal    int
	CloseHourLocal   int
	TZOffsetHours    int
	PreWindowMinutes int
	SelectionMin     int
	SelectionTarget  int
	LookaheadDays    int
	EntryFee         float64
	TokenSymbol      string
	PayoutFraction   float64
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables and defaults suffice.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	for name, lg := range c.Leagues {
		if lg.OpenHourLocal < 0 || lg.OpenHourLocal > 23 || lg.CloseHourLocal < 0 || lg.CloseHourLocal > 23 {
			return fmt.Errorf("league %s: open/close hours must be 0-23", name)
		}
		if lg.PayoutFraction <= 0 || lg.PayoutFraction > 1 {
			return fmt.Errorf("league %s: payout fraction must be in (0, 1]", name)
		}
		if lg.SelectionTarget < lg.SelectionMin {
			return fmt.Errorf("league %s: selection target below minimum", name)
		}
	}
	return nil
}

// League returns the configuration for a league, or false if unknown
func (c *Config) League(name string) (LeagueConfig, bool) {
	lg, ok := c.Leagues[name]
	return lg, ok
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "sportpicks")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("ScoreFeed.TimeoutSecs", 8)
	viper.SetDefault("ScoreFeed.MockFeed", true)
	viper.SetDefault("Payout.TimeoutSecs", 8)
	viper.SetDefault("Payout.MockGateway", true)

	// Evening window that wraps midnight: open 19:00 WAT (18:00 UTC), close
	// 10:00 WAT (09:00 UTC) the next morning.
	viper.SetDefault("Leagues.epl", map[string]interface{}{
		"DisplayName":      "Premier League",
		"OpenHourLocal":    19,
		"CloseHourLocal":   10,
		"TZOffsetHours":    1,
		"PreWindowMinutes": 5,
		"SelectionMin":     3,
		"SelectionTarget":  5,
		"LookaheadDays":    1,
		"EntryFee":         1,
		"TokenSymbol":      "CARV",
		"PayoutFraction":   0.8,
	})
	viper.SetDefault("Leagues.nba", map[string]interface{}{
		"DisplayName":      "NBA",
		"OpenHourLocal":    9,
		"CloseHourLocal":   18,
		"TZOffsetHours":    -5,
		"PreWindowMinutes": 5,
		"SelectionMin":     3,
		"SelectionTarget":  6,
		"LookaheadDays":    2,
		"EntryFee":         1,
		"TokenSymbol":      "CARV",
		"PayoutFraction":   0.8,
	})
}
