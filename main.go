package main

import (
	"github.com/sirupsen/logrus"

	"github.com/jumpei00/levertrade/app/engine"
	"github.com/jumpei00/levertrade/app/models"
	"github.com/jumpei00/levertrade/app/server"
	"github.com/jumpei00/levertrade/config"
	"github.com/jumpei00/levertrade/log"
	"github.com/jumpei00/levertrade/stock"
)

func main() {
	config.InitConfig()
	log.SetLogging(config.Config.LogLevel)
	if err := models.InitDB(); err != nil {
		logrus.Fatalf("database init error: %v", err)
	}

	var fetch models.QuoteFetcher
	switch config.Config.DataSource {
	case "yahoo":
		fetch = stock.NewFetcher(config.Config.FetchRetries).GetStockData
	case "csv":
		fetch = stock.NewCSVSource(config.Config.CSVDir).GetStockData
	}
	store := models.NewCandleStore(models.DB, fetch, logrus.StandardLogger())

	policy, err := engine.ParseGapPolicy(config.Config.GapPolicy)
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	cfg := engine.Config{
		Instruments: models.Instruments{
			Base:  config.Config.BaseSymbol,
			Long:  config.Config.LongSymbol,
			Short: config.Config.ShortSymbol,
		},
		InitialCapital: config.Config.InitialCapital,
		FeeBps:         config.Config.FeeBps,
		SlippageBps:    config.Config.SlippageBps,
		GapPolicy:      policy,
	}
	service := engine.NewService(store, cfg, logrus.StandardLogger())

	handler := server.NewHandler(service, config.Config.Strategy)
	if err := server.Run(handler, config.Config.IP, config.Config.Port); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
