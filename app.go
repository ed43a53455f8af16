package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	m "github.com/CapsLock-Studio/sniper-dashboard/modules"
)

func main() {
	config := flag.String("config", "", "yaml config")
	database := flag.String("database", "", "sqlite database path")
	listen := flag.String("listen", "", "http listen address")
	serve := flag.Bool("serve", false, "serve the dashboard api")
	seed := flag.Bool("seed", false, "write missing defaults from the yaml config")
	list := flag.Bool("list", false, "print the current configuration")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	y := m.NewYaml(*config)

	setting, err := y.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	if *database != "" {
		setting.Database = *database
	}

	if *listen != "" {
		setting.Listen = *listen
	}

	if setting.Secret == "" {
		logrus.Fatalf("a secret is required, set %s", m.ENV_SECRET)
	}

	db, err := m.NewDB(setting.Database, setting.Secret)
	if err != nil {
		logrus.WithError(err).Fatal("could not open database")
	}
	defer db.Close()

	editor := m.NewEditor(db)
	ctx := context.Background()

	if *seed {
		created, err := y.Seed(ctx, editor, setting.Defaults)
		if err != nil {
			logrus.WithError(err).Fatal("seed failed")
		}

		logrus.WithField("created", created).Info("seed done")
	}

	if *list {
		snapshot, err := editor.Load(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("could not load configuration")
		}

		m.PrintSnapshot(os.Stdout, snapshot)
	}

	if *serve {
		market := m.NewMarket(setting.Market, ratelimit.New(setting.Market.PerSecond))
		dashboard := m.NewDashboard(db, market, setting.BotInstance)

		if err := m.NewHttp(editor, dashboard, market).Serve(setting.Listen); err != nil {
			logrus.WithError(err).Fatal("server stopped")
		}
	}
}
