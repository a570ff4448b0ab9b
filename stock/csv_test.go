package stock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jumpei00/levertrade/stock"
)

const yahooExport = `Date,Open,High,Low,Close,Adj Close,Volume
2021-01-06,"1,010",1020,1000,1010,505,300
2021-01-04,1000,1010,990,1000,500,100
2021-01-05,null,null,null,null,null,0
2021-01-07,1012,1030,1005,1020,510,"1,200"
`

func writeCSV(t *testing.T, name, body string) string {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCSVSource(t *testing.T) {
	assert := assert.New(t)
	src := stock.NewCSVSource(writeCSV(t, "TQQQ.csv", yahooExport))

	q, err := src.GetStockData(context.Background(), "TQQQ", time.Time{}, time.Time{})
	assert.Nil(err)
	assert.Equal("TQQQ", q.Symbol)
	// null row dropped, rows sorted
	assert.Len(q.Date, 3)
	assert.Equal("2021-01-04", q.Date[0].Format("2006-01-02"))
	assert.Equal("2021-01-07", q.Date[2].Format("2006-01-02"))
	// adjusted by adj close ratio
	assert.InDelta(500, q.Close[0], 1e-9)
	assert.InDelta(505, q.Open[1], 1e-9)
	assert.InDelta(1200, q.Volume[2], 1e-9)

	q, err = src.GetStockData(context.Background(), "TQQQ",
		time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.January, 6, 0, 0, 0, 0, time.UTC))
	assert.Nil(err)
	assert.Len(q.Date, 1)
	assert.InDelta(505, q.Close[0], 1e-9)
}

func TestCSVSourceCloseOnly(t *testing.T) {
	assert := assert.New(t)
	src := stock.NewCSVSource(writeCSV(t, "QQQ.csv", "date,close\n01/04/2021,310.5\n01/05/2021,311\n"))

	q, err := src.GetStockData(context.Background(), "QQQ", time.Time{}, time.Time{})
	assert.Nil(err)
	assert.Len(q.Date, 2)
	assert.Equal(310.5, q.Open[0])
	assert.Equal(310.5, q.High[0])
	assert.Equal(0.0, q.Volume[0])
}

func TestCSVSourceErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	src := stock.NewCSVSource(writeCSV(t, "QQQ.csv", "Date,Open\n2021-01-04,1\n"))

	_, err := src.GetStockData(ctx, "QQQ", time.Time{}, time.Time{})
	assert.NotNil(err)

	_, err = src.GetStockData(ctx, "SQQQ", time.Time{}, time.Time{})
	assert.True(errors.Is(err, stock.ErrNoQuote))

	src = stock.NewCSVSource(writeCSV(t, "QQQ.csv", yahooExport))
	_, err = src.GetStockData(ctx, "QQQ", time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	assert.True(errors.Is(err, stock.ErrNoQuote))
}
