package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/markcheno/go-quote"
	"github.com/sirupsen/logrus"
)

const timeFormat = "2006-01-02"

// ErrNoQuote is returned when download succeeded but has no rows, usually bad symbol
var ErrNoQuote = errors.New("no quote data")

// download is replaced in tests
var download = func(symbol, start, end string) (quote.Quote, error) {
	return quote.NewQuoteFromYahoo(symbol, start, end, quote.Daily, true)
}

// Fetcher downloads split adjusted daily stockdata from Yahoo, retrying with backoff
type Fetcher struct {
	Retries     int
	InitialWait time.Duration
}

// NewFetcher is constructor of Fetcher
func NewFetcher(retries int) *Fetcher {
	return &Fetcher{Retries: retries, InitialWait: time.Second}
}

// GetStockData dawnloads daily stockdata for symbol(QQQ, TQQQ...etc) between from and to.
// A symbol without rows is permanent error and is not retried
func (f *Fetcher) GetStockData(ctx context.Context, symbol string, from, to time.Time) (*quote.Quote, error) {
	start, end := from.Format(timeFormat), to.Format(timeFormat)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.InitialWait
	var policy backoff.BackOff = bo
	if f.Retries >= 0 {
		policy = backoff.WithMaxRetries(bo, uint64(f.Retries))
	}

	var q quote.Quote
	attempt := 0
	op := func() error {
		attempt++
		var err error
		q, err = download(symbol, start, end)
		if err != nil {
			logrus.WithFields(logrus.Fields{"symbol": symbol, "attempt": attempt}).Warnf("stock get error: %v", err)
			return err
		}
		if len(q.Date) == 0 {
			return backoff.Permanent(fmt.Errorf("%w: %s %s~%s", ErrNoQuote, symbol, start, end))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	q.Symbol = symbol
	return &q, nil
}
