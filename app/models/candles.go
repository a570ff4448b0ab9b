package models

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-quote"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// earliest day requested from upstream when caller wants full history
var firstHistoryDay = NewDate(1999, time.March, 10)

// Candles is slice of Candle
// Using this, create candle data in database
type Candles []Candle

// Candle is daily stock candledata, also used as json
type Candle struct {
	ID     int     `json:"-"`
	Symbol string  `gorm:"index" json:"symbol"`
	Time   int64   `gorm:"index" json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CandleFetch remembers which range of the symbol was already downloaded
type CandleFetch struct {
	Symbol string `gorm:"primaryKey"`
	From   int64
	To     int64
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// NewCandlesFromQuote converts Quote to slice of Candle due to creating in database,
// ex) [Date[1, 2, 3...], Open[1, 2, 3...]...] → [[Date[1], Open[1]...], [Date[2], Open[2]...]...]
// Prices are expected to be split adjusted, leveraged ETFs split often
func NewCandlesFromQuote(q *quote.Quote) Candles {
	candles := make(Candles, 0, len(q.Date))
	for i := 0; i < len(q.Date); i++ {
		if q.Close[i] <= 0 {
			continue
		}
		candles = append(candles, Candle{
			Symbol: q.Symbol,
			Time:   DateOf(q.Date[i]).UnixMilli(),
			Open:   round4(q.Open[i]),
			High:   round4(q.High[i]),
			Low:    round4(q.Low[i]),
			Close:  round4(q.Close[i]),
			Volume: q.Volume[i],
		})
	}
	return candles
}

// Bar converts Candle to Bar
func (c Candle) Bar() Bar {
	return Bar{
		Date:   DateFromUnixMilli(c.Time),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// Bars converts all candles
func (cs Candles) Bars() []Bar {
	bars := make([]Bar, len(cs))
	for i, c := range cs {
		bars[i] = c.Bar()
	}
	return bars
}

// QuoteFetcher downloads daily quote of symbol for [from, to]
type QuoteFetcher func(ctx context.Context, symbol string, from, to time.Time) (*quote.Quote, error)

// CandleStore is price cache on database.
// When the requested range was never downloaded, it asks fetch and stores the result
type CandleStore struct {
	db     *gorm.DB
	fetch  QuoteFetcher
	logger logrus.FieldLogger
}

// NewCandleStore is constructor of CandleStore, fetch may be nil (cache only)
func NewCandleStore(db *gorm.DB, fetch QuoteFetcher, logger logrus.FieldLogger) *CandleStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CandleStore{db: db, fetch: fetch, logger: logger}
}

// Bars returns bars of symbol in [from, to] ascending, zero from/to is unbounded
func (cs *CandleStore) Bars(ctx context.Context, symbol string, from, to Date) ([]Bar, error) {
	if cs.fetch != nil {
		prev, err := cs.lastFetch(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if !cs.covers(prev, from, to) {
			if err := cs.download(ctx, symbol, prev, from, to); err != nil {
				return nil, err
			}
		}
	}

	candles, err := cs.GetCandles(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	return candles.Bars(), nil
}

// GetCandles gets candle data of symbol between from and to by ascending
func (cs *CandleStore) GetCandles(ctx context.Context, symbol string, from, to Date) (Candles, error) {
	var candles Candles
	q := cs.db.WithContext(ctx).Where("symbol = ?", symbol)
	if !from.IsZero() {
		q = q.Where("time >= ?", from.UnixMilli())
	}
	if !to.IsZero() {
		q = q.Where("time <= ?", to.UnixMilli())
	}
	if err := q.Order("time asc").Find(&candles).Error; err != nil {
		return nil, fmt.Errorf("get candles %s: %w", symbol, err)
	}
	return candles, nil
}

// ReplaceCandles deletes all candles of symbol, then creates candles
func (cs *CandleStore) ReplaceCandles(ctx context.Context, symbol string, candles Candles, from, to Date) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ?", symbol).Delete(&Candle{}).Error; err != nil {
			return err
		}
		if len(candles) > 0 {
			if err := tx.CreateInBatches(candles, 100).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("symbol = ?", symbol).Delete(&CandleFetch{}).Error; err != nil {
			return err
		}
		return tx.Create(&CandleFetch{Symbol: symbol, From: from.UnixMilli(), To: to.UnixMilli()}).Error
	})
}

// DeleteCandles deletes all data of symbol
func (cs *CandleStore) DeleteCandles(ctx context.Context, symbol string) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ?", symbol).Delete(&Candle{}).Error; err != nil {
			return err
		}
		return tx.Where("symbol = ?", symbol).Delete(&CandleFetch{}).Error
	})
}

// LastCandleTime returns a time of last candle of symbol
func (cs *CandleStore) LastCandleTime(ctx context.Context, symbol string) (int64, error) {
	var candle Candle
	if err := cs.db.WithContext(ctx).Where("symbol = ?", symbol).Order("time desc").First(&candle).Error; err != nil {
		return 0, err
	}
	return candle.Time, nil
}

// lastFetch returns downloaded range of symbol, nil when it was never downloaded
func (cs *CandleStore) lastFetch(ctx context.Context, symbol string) (*CandleFetch, error) {
	var fetches []CandleFetch
	if err := cs.db.WithContext(ctx).Where("symbol = ?", symbol).Limit(1).Find(&fetches).Error; err != nil {
		return nil, fmt.Errorf("candle fetch %s: %w", symbol, err)
	}
	if len(fetches) == 0 {
		return nil, nil
	}
	return &fetches[0], nil
}

func (cs *CandleStore) covers(prev *CandleFetch, from, to Date) bool {
	if prev == nil {
		return false
	}
	from, to = cs.bounds(from, to)
	return prev.From <= from.UnixMilli() && prev.To >= to.UnixMilli()
}

// bounds resolves unbounded range to the range used for download
func (cs *CandleStore) bounds(from, to Date) (Date, Date) {
	if from.IsZero() {
		from = firstHistoryDay
	}
	if to.IsZero() {
		to = DateOf(time.Now().UTC())
	}
	return from, to
}

func (cs *CandleStore) download(ctx context.Context, symbol string, prev *CandleFetch, from, to Date) error {
	from, to = cs.bounds(from, to)

	// widen to what was already downloaded so the replace never shrinks the cache
	if prev != nil {
		if d := DateFromUnixMilli(prev.From); d.Before(from) {
			from = d
		}
		if d := DateFromUnixMilli(prev.To); d.After(to) {
			to = d
		}
	}

	cs.logger.WithFields(logrus.Fields{"symbol": symbol, "from": from, "to": to}).Info("candle download")
	q, err := cs.fetch(ctx, symbol, from.Time, to.Time)
	if err != nil {
		return fmt.Errorf("download %s: %w", symbol, err)
	}
	candles := NewCandlesFromQuote(q)
	for i := range candles {
		candles[i].Symbol = symbol
	}
	if err := cs.ReplaceCandles(ctx, symbol, candles, from, to); err != nil {
		return fmt.Errorf("store %s: %w", symbol, err)
	}
	return nil
}
