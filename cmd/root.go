package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/filtering"
	"github.com/arfanana/smart-internship-engine/internal/logger"
	"github.com/arfanana/smart-internship-engine/internal/matching"
	"github.com/arfanana/smart-internship-engine/internal/ranking"
	"github.com/arfanana/smart-internship-engine/internal/scoring"
	"github.com/arfanana/smart-internship-engine/internal/secrets"
	"github.com/arfanana/smart-internship-engine/internal/storage"
)

const (
	app       = "internship-engine"
	envPrefix = "INTERNSHIP_ENGINE"
)

type Config struct {
	Database    storage.Config     `mapstructure:"database"`
	Matching    MatchingConfig     `mapstructure:"matching"`
	Institution domain.GradePolicy `mapstructure:"institution"`
	Catalog     CatalogConfig      `mapstructure:"catalog"`
}

type MatchingConfig struct {
	Limit    int             `mapstructure:"limit"`
	MinScore float64         `mapstructure:"min-score"`
	Weights  scoring.Weights `mapstructure:"weights"`
	Exclude  struct {
		Employers []string `mapstructure:"employers"`
	} `mapstructure:"exclude"`
}

type CatalogConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "internship-engine matches students to internship postings and records the ranked results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is internship-engine.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("database.driver", storage.DriverSQLite)
	viper.SetDefault("database.path", "./data")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.dsn-file", "")
	viper.SetDefault("database.max-open-conns", 10)
	viper.SetDefault("database.max-idle-conns", 5)
	viper.SetDefault("database.conn-max-lifetime", 30*time.Minute)
	viper.SetDefault("database.connect-timeout", 30*time.Second)

	viper.SetDefault("matching.limit", ranking.DefaultLimit)
	viper.SetDefault("matching.min-score", 0.0)
	viper.SetDefault("matching.weights.skills", scoring.DefaultSkillsWeight)
	viper.SetDefault("matching.weights.domain", scoring.DefaultDomainWeight)
	viper.SetDefault("matching.exclude.employers", []string{})

	viper.SetDefault("institution.max-year", domain.DefaultMaxYear)
	viper.SetDefault("institution.max-grade", domain.DefaultMaxGrade)

	viper.SetDefault("catalog.url", "http://localhost:8000")
	viper.SetDefault("catalog.timeout", 10*time.Second)
	viper.SetDefault("catalog.user-agent", app)
	viper.SetDefault("catalog.token", "")
	viper.SetDefault("catalog.token-file", "")
}

func initConfig() {
	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Defaults and environment are enough when no config file was asked for.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// setup builds the logger and loads the configuration for a command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Debug("loaded config",
		zap.String("config_file", viper.ConfigFileUsed()),
		zap.String("driver", config.Database.Driver),
		zap.Int("limit", config.Matching.Limit),
	)

	return logger, config
}

// openStore connects to the configured database. Postgres DSNs are resolved
// through the secrets loader so they can live in a file or DATABASE_URL.
func openStore(ctx context.Context, config *Config, logger *zap.Logger) *storage.Store {
	dbConfig := config.Database

	if storage.NeedsDSN(dbConfig.Driver) {
		dsn, err := secrets.Load(secrets.Source{
			Name:  "database dsn",
			Value: dbConfig.DSN,
			File:  dbConfig.DSNFile,
			Env:   "DATABASE_URL",
		})
		if err != nil {
			logger.Fatal("loading database dsn",
				zap.Error(err),
				zap.String("hint", "set database.dsn, database.dsn-file or the DATABASE_URL environment variable"),
			)
		}
		dbConfig.DSN = dsn
	}

	store, err := storage.Open(ctx, dbConfig, logger)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}

	return store
}

// newService wires the matching pipeline from the configuration.
func newService(store *storage.Store, config *Config, logger *zap.Logger) *matching.Service {
	scorer, err := scoring.New(config.Matching.Weights)
	if err != nil {
		logger.Fatal("invalid matching weights", zap.Error(err))
	}

	weights := scorer.Weights()
	logger.Debug("scoring weights", zap.Float64("skills", weights.Skills), zap.Float64("domain", weights.Domain))

	filters := filtering.New(filtering.DefaultSteps(config.Matching.Exclude.Employers), logger)
	for _, status := range filtering.Describe(filters.Steps()) {
		logger.Debug("filter configured", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
	}

	ranker := ranking.New(config.Matching.Limit, config.Matching.MinScore)
	engine := matching.NewEngine(filters, scorer, ranker, logger)

	return matching.NewService(store, engine, config.Institution, logger)
}
