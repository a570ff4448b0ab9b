package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Config represents config info
var Config = defaultConfList()

// ConfList has contents of config.ini
type ConfList struct {
	DBdriver string
	DBname   string
	Port     int
	IP       string
	LogLevel string

	InitialCapital float64
	FeeBps         float64
	SlippageBps    float64
	GapPolicy      string
	Strategy       string
	BaseSymbol     string
	LongSymbol     string
	ShortSymbol    string

	DataSource   string
	CSVDir       string
	FetchRetries int
}

func defaultConfList() ConfList {
	return ConfList{
		DBdriver:       "sqlite3",
		DBname:         "levertrade.sqlite3",
		Port:           8080,
		LogLevel:       "info",
		InitialCapital: 10000,
		GapPolicy:      "forward-fill",
		Strategy:       "current",
		BaseSymbol:     "QQQ",
		LongSymbol:     "TQQQ",
		ShortSymbol:    "SQQQ",
		DataSource:     "yahoo",
		CSVDir:         "data",
		FetchRetries:   3,
	}
}

// LoadConfig reads ini file, keys not in the file keep their default
func LoadConfig(path string) (ConfList, error) {
	c := defaultConfList()
	conf, err := ini.Load(path)
	if err != nil {
		return c, err
	}

	db := conf.Section("db")
	c.DBdriver = db.Key("driver").MustString(c.DBdriver)
	c.DBname = db.Key("name").MustString(c.DBname)

	web := conf.Section("web")
	c.Port = web.Key("port").MustInt(c.Port)
	c.IP = web.Key("ip").MustString(c.IP)

	c.LogLevel = conf.Section("log").Key("level").MustString(c.LogLevel)

	bt := conf.Section("backtest")
	c.InitialCapital = bt.Key("initial_capital").MustFloat64(c.InitialCapital)
	c.FeeBps = bt.Key("fee_bps").MustFloat64(c.FeeBps)
	c.SlippageBps = bt.Key("slippage_bps").MustFloat64(c.SlippageBps)
	c.GapPolicy = bt.Key("gap_policy").MustString(c.GapPolicy)
	c.Strategy = bt.Key("strategy").MustString(c.Strategy)
	c.BaseSymbol = bt.Key("base").MustString(c.BaseSymbol)
	c.LongSymbol = bt.Key("long").MustString(c.LongSymbol)
	c.ShortSymbol = bt.Key("short").MustString(c.ShortSymbol)

	data := conf.Section("data")
	c.DataSource = data.Key("source").In(c.DataSource, []string{"yahoo", "csv", "db"})
	c.CSVDir = data.Key("csv_dir").MustString(c.CSVDir)
	c.FetchRetries = data.Key("fetch_retries").MustInt(c.FetchRetries)

	return c, nil
}

// InitConfig initializes config settings
func InitConfig() {
	conf, err := LoadConfig("config.ini")
	if err != nil {
		logrus.Warnf("init file open error: %v", err)
	}
	Config = conf
}
