package stock

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/markcheno/go-quote"
)

// headerMapping maps csv column names of common exports to quote fields
var headerMapping = map[string]string{
	"date":      "date",
	"time":      "date",
	"timestamp": "date",
	"open":      "open",
	"high":      "high",
	"low":       "low",
	"close":     "close",
	"adj close": "adjclose",
	"adj_close": "adjclose",
	"adjclose":  "adjclose",
	"volume":    "volume",
	"vol":       "volume",
}

// CSVSource reads daily stockdata from <Dir>/<SYMBOL>.csv.
// Date and Close columns are required. When "Adj Close" exists,
// open, high, low and close are adjusted by its ratio to close
type CSVSource struct {
	Dir string
}

// NewCSVSource is constructor of CSVSource
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" || value == "-" || strings.EqualFold(value, "null") {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	return v, err == nil
}

type csvRow struct {
	date                   time.Time
	open, high, low, close float64
	volume                 float64
}

// GetStockData reads rows of symbol between from and to, sorted by date
func (s *CSVSource) GetStockData(ctx context.Context, symbol string, from, to time.Time) (*quote.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, symbol+".csv")
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, path)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := readRows(file, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s %s~%s", ErrNoQuote, symbol, from.Format(timeFormat), to.Format(timeFormat))
	}

	q := quote.NewQuote(symbol, len(rows))
	for i, r := range rows {
		q.Date[i] = r.date
		q.Open[i] = r.open
		q.High[i] = r.high
		q.Low[i] = r.low
		q.Close[i] = r.close
		q.Volume[i] = r.volume
	}
	return &q, nil
}

func readRows(r io.Reader, from, to time.Time) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		if field, ok := headerMapping[strings.ToLower(strings.TrimSpace(name))]; ok {
			cols[field] = i
		}
	}
	if _, ok := cols["date"]; !ok {
		return nil, errors.New("no date column")
	}
	if _, ok := cols["close"]; !ok {
		return nil, errors.New("no close column")
	}

	first := from.Format(timeFormat)
	last := to.Format(timeFormat)
	get := func(record []string, field string) (float64, bool) {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return 0, false
		}
		return parseFloat(record[i])
	}

	var rows []csvRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if cols["date"] >= len(record) {
			continue
		}
		date, err := dateparse.ParseIn(strings.TrimSpace(record[cols["date"]]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if day := date.Format(timeFormat); (!from.IsZero() && day < first) || (!to.IsZero() && day > last) {
			continue
		}

		cl, ok := get(record, "close")
		if !ok || cl <= 0 {
			continue
		}
		row := csvRow{date: date, open: cl, high: cl, low: cl, close: cl}
		if v, ok := get(record, "open"); ok {
			row.open = v
		}
		if v, ok := get(record, "high"); ok {
			row.high = v
		}
		if v, ok := get(record, "low"); ok {
			row.low = v
		}
		row.volume, _ = get(record, "volume")
		if adj, ok := get(record, "adjclose"); ok && adj > 0 {
			ratio := adj / cl
			row.open *= ratio
			row.high *= ratio
			row.low *= ratio
			row.close = adj
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	return rows, nil
}
