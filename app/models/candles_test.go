package models_test

import (
	"context"
	"errors"
	"time"

	"github.com/jumpei00/levertrade/app/models"
)

var (
	jan4 = models.NewDate(2021, time.January, 4)
	jan8 = models.NewDate(2021, time.January, 8)
)

func (suite *ModelsTestSuite) TestNewCandlesFromQuote() {
	q := weekQuote("QQQ", 310.123456, 312, 0, 315, 316)
	candles := models.NewCandlesFromQuote(&q)

	// zero close is dropped
	suite.Len(candles, 4)
	suite.Equal("QQQ", candles[0].Symbol)
	suite.Equal(310.1235, candles[0].Close)
	suite.Equal(jan4.UnixMilli(), candles[0].Time)

	bars := candles.Bars()
	suite.True(bars[0].Date.Equal(jan4))
	suite.True(bars[3].Date.Equal(jan8))
	suite.Equal(317.0, bars[3].High)
}

func (suite *ModelsTestSuite) TestBarsDownloadsOnce() {
	ctx := context.Background()

	bars, err := suite.store.Bars(ctx, "TQQQ", jan4, jan8)
	suite.Nil(err)
	suite.Len(bars, 5)
	suite.Equal([]string{"TQQQ"}, suite.fake.calls)

	times := []int64{}
	for _, b := range bars {
		times = append(times, b.Date.UnixMilli())
	}
	suite.IsIncreasing(times)

	// second read is served from database
	bars, err = suite.store.Bars(ctx, "TQQQ", jan4.AddDays(1), jan8)
	suite.Nil(err)
	suite.Len(bars, 4)
	suite.Len(suite.fake.calls, 1)

	// wider range goes upstream again
	_, err = suite.store.Bars(ctx, "TQQQ", jan4.AddDays(-30), jan8)
	suite.Nil(err)
	suite.Len(suite.fake.calls, 2)
	_, err = suite.store.Bars(ctx, "TQQQ", jan4.AddDays(-10), jan8)
	suite.Nil(err)
	suite.Len(suite.fake.calls, 2)
}

func (suite *ModelsTestSuite) TestBarsFetchError() {
	suite.fake.fail = true
	_, err := suite.store.Bars(context.Background(), "QQQ", jan4, jan8)
	suite.True(errors.Is(err, errUpstream))

	candles, err := suite.store.GetCandles(context.Background(), "QQQ", models.Date{}, models.Date{})
	suite.Nil(err)
	suite.Empty(candles)
}

func (suite *ModelsTestSuite) TestBarsCoverageError() {
	suite.Require().Nil(models.DB.Migrator().DropTable(&models.CandleFetch{}))
	defer models.DB.AutoMigrate(&models.CandleFetch{})

	_, err := suite.store.Bars(context.Background(), "QQQ", jan4, jan8)
	suite.NotNil(err)
	// nothing is downloaded when the cached range can not be read
	suite.Empty(suite.fake.calls)
}

func (suite *ModelsTestSuite) TestCacheOnlyStore() {
	ctx := context.Background()
	q := weekQuote("QQQ", 1, 2, 3)
	suite.Nil(suite.store.ReplaceCandles(ctx, "QQQ", models.NewCandlesFromQuote(&q), jan4, jan8))

	cacheOnly := models.NewCandleStore(models.DB, nil, nil)
	bars, err := cacheOnly.Bars(ctx, "QQQ", models.Date{}, models.Date{})
	suite.Nil(err)
	suite.Len(bars, 3)

	bars, err = cacheOnly.Bars(ctx, "SQQQ", models.Date{}, models.Date{})
	suite.Nil(err)
	suite.Empty(bars)
	suite.Empty(suite.fake.calls)
}

func (suite *ModelsTestSuite) TestReplaceCandles() {
	ctx := context.Background()
	q := weekQuote("QQQ", 1, 2, 3)
	suite.Nil(suite.store.ReplaceCandles(ctx, "QQQ", models.NewCandlesFromQuote(&q), jan4, jan8))
	q = weekQuote("QQQ", 7, 8)
	suite.Nil(suite.store.ReplaceCandles(ctx, "QQQ", models.NewCandlesFromQuote(&q), jan4, jan8))

	candles, err := suite.store.GetCandles(ctx, "QQQ", models.Date{}, models.Date{})
	suite.Nil(err)
	suite.Len(candles, 2)
	suite.Equal(7.0, candles[0].Close)
}

func (suite *ModelsTestSuite) TestLastCandleTime() {
	ctx := context.Background()
	_, err := suite.store.Bars(ctx, "QQQ", jan4, jan8)
	suite.Nil(err)

	last, err := suite.store.LastCandleTime(ctx, "QQQ")
	suite.Nil(err)
	suite.Equal(jan8.UnixMilli(), last)

	_, err = suite.store.LastCandleTime(ctx, "DAMYTEST")
	suite.NotNil(err)
}

func (suite *ModelsTestSuite) TestDeleteCandles() {
	ctx := context.Background()
	_, err := suite.store.Bars(ctx, "QQQ", jan4, jan8)
	suite.Nil(err)
	suite.Nil(suite.store.DeleteCandles(ctx, "QQQ"))

	candles, err := suite.store.GetCandles(ctx, "QQQ", models.Date{}, models.Date{})
	suite.Nil(err)
	suite.Empty(candles)

	// coverage is forgotten too
	_, err = suite.store.Bars(ctx, "QQQ", jan4, jan8)
	suite.Nil(err)
	suite.Len(suite.fake.calls, 2)
}
