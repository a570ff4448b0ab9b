package models

import (
	"fmt"

	"github.com/jumpei00/levertrade/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is DBconnection
var DB *gorm.DB

// InitDB initializes DB with config.ini settings
func InitDB() error {
	if config.Config.DBdriver != "sqlite3" {
		return fmt.Errorf("unsupported db driver %q", config.Config.DBdriver)
	}
	db, err := OpenDB(config.Config.DBname)
	if err != nil {
		logrus.Warnf("database open error: %v", err)
		return err
	}
	DB = db
	return nil
}

// OpenDB opens sqlite database and migrates candle tables
func OpenDB(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if err := db.AutoMigrate(&Candle{}, &CandleFetch{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", name, err)
	}
	return db, nil
}
