package modules

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DEFAULT_LISTEN       string = ":8080"
	DEFAULT_DATABASE     string = "dashboard.db"
	DEFAULT_BOT_INSTANCE string = "bot_instance_1"

	ENV_SECRET          string = "DASHBOARD_SECRET"
	ENV_DATABASE        string = "DASHBOARD_DATABASE"
	ENV_MORALIS_API_KEY string = "MORALIS_API_KEY"
)

type Yaml struct {
	Path   string
	Logger *logrus.Entry
}

func NewYaml(path string) *Yaml {
	return &Yaml{
		Path:   path,
		Logger: logrus.WithField("module", "yaml"),
	}
}

// Load reads the config file (when there is one), then .env, then the
// environment. Environment values win over the file for secrets.
func (y *Yaml) Load() (*models.Config, error) {
	config := &models.Config{}

	if y.Path != "" {
		filename, _ := filepath.Abs(y.Path)
		file, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		y.Logger.WithError(err).Warn("could not load .env")
	}

	if v := os.Getenv(ENV_SECRET); v != "" {
		config.Secret = v
	}

	if v := os.Getenv(ENV_DATABASE); v != "" {
		config.Database = v
	}

	if v := os.Getenv(ENV_MORALIS_API_KEY); v != "" {
		config.Market.MoralisApiKey = v
	}

	if config.Listen == "" {
		config.Listen = DEFAULT_LISTEN
	}

	if config.Database == "" {
		config.Database = DEFAULT_DATABASE
	}

	if config.BotInstance == "" {
		config.BotInstance = DEFAULT_BOT_INSTANCE
	}

	if config.Market.PerSecond <= 0 {
		config.Market.PerSecond = DEFAULT_PER_SECOND
	}

	return config, nil
}

// Seed writes default entries that do not exist yet. Existing rows are never
// overwritten and every default goes through the same validation as an edit.
func (y *Yaml) Seed(ctx context.Context, editor *Editor, defaults map[models.Table][]models.ConfigEntry) (created int, err error) {
	for table, entries := range defaults {
		for _, entry := range entries {
			logger := y.Logger.WithField("table", table).WithField("key", entry.Key)

			_, err := editor.Store.Get(ctx, table, entry.Key)
			if err == nil {
				continue
			}

			if !errors.Is(err, ErrNotFound) {
				return created, err
			}

			if table == models.TableWhaleWallets {
				err = editor.AddWhale(ctx, entry.Key)
			} else {
				_, err = editor.Commit(ctx, table, entry.Key, entry.Value)
			}

			var storeErr *StoreError
			if errors.As(err, &storeErr) {
				return created, err
			}

			if err != nil {
				logger.WithError(err).Warn("skip default")
				continue
			}

			if entry.Description != "" {
				if err := editor.Describe(ctx, table, entry.Key, entry.Description); err != nil {
					return created, err
				}
			}

			logger.Info("seeded")
			created++
		}
	}

	return created, nil
}
