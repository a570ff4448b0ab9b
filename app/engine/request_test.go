package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jumpei00/levertrade/app/engine"
	"github.com/jumpei00/levertrade/app/models"
	"github.com/jumpei00/levertrade/app/models/strategy"
)

func TestNewRequest(t *testing.T) {
	assert := assert.New(t)

	req, err := engine.NewRequest("2020-01-01", "2020-12-31", "2020-03-01", "proposed-volatility-protected")
	assert.Nil(err)
	assert.True(req.From.Equal(models.NewDate(2020, time.January, 1)))
	assert.True(req.To.Equal(models.NewDate(2020, time.December, 31)))
	assert.True(req.DisplayFrom.Equal(models.NewDate(2020, time.March, 1)))
	assert.Equal(strategy.ProposedVolatilityProtected, req.Variant)

	// everything optional
	req, err = engine.NewRequest("", "", "", "")
	assert.Nil(err)
	assert.True(req.From.IsZero())
	assert.True(req.To.IsZero())
	assert.Equal(strategy.Current, req.Variant)

	req, err = engine.NewRequest("2021/02/03", "", "", "current")
	assert.Nil(err)
	assert.True(req.From.Equal(models.NewDate(2021, time.February, 3)))
}

func TestNewRequestInvalid(t *testing.T) {
	assert := assert.New(t)

	for _, c := range [][3]string{
		{"2020-12-31", "2020-01-01", ""},
		{"2020-01-01", "2020-12-31", "2019-06-01"},
		{"2020-01-01", "2020-12-31", "2021-06-01"},
		{"yesterday-ish", "", ""},
		{"", "2020-13-45", ""},
	} {
		_, err := engine.NewRequest(c[0], c[1], c[2], "")
		assert.True(errors.Is(err, models.ErrInvalidRequest), "%v: %v", c, err)
	}

	_, err := engine.NewRequest("2020-01-01", "2020-12-31", "", "buy-and-pray")
	assert.True(errors.Is(err, models.ErrUnknownStrategy))
	assert.False(errors.Is(err, models.ErrInvalidRequest))
}

func TestRequestSameDay(t *testing.T) {
	assert := assert.New(t)

	_, err := engine.NewRequest("2020-01-01", "2020-01-01", "2020-01-01", "")
	assert.Nil(err)
}
