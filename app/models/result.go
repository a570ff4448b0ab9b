package models

// Trade is closed round-trip, ExitDate is nil only while open
type Trade struct {
	Symbol             string  `json:"symbol"`
	EntryDate          Date    `json:"entryDate"`
	ExitDate           *Date   `json:"exitDate"`
	EntryPrice         float64 `json:"entryPrice"`
	ExitPrice          float64 `json:"exitPrice"`
	Quantity           float64 `json:"quantity"`
	PositionSizePct    float64 `json:"positionSize"`
	DaysHeld           int     `json:"daysHeld"`
	ReturnPct          float64 `json:"returnPct"`
	PortfolioReturnPct float64 `json:"portfolioReturnPct"`
	PnL                float64 `json:"pnl"`
}

// EquityPoint is cumulative return(%) of strategy and benchmarks for one day.
// Leveraged is nil while the leveraged benchmark has no data yet
type EquityPoint struct {
	Date      Date     `json:"date"`
	Strategy  float64  `json:"strategy"`
	Base      float64  `json:"base"`
	Leveraged *float64 `json:"leveraged"`
}

// BenchmarkStats is buy-and-hold performance of one instrument
type BenchmarkStats struct {
	TotalReturn float64 `json:"totalReturn"`
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// Benchmarks has stats for base and leveraged instrument
type Benchmarks struct {
	Base      BenchmarkStats `json:"base"`
	Leveraged BenchmarkStats `json:"leveraged"`
}

// WinRate is count of winning/losing trades and percentage of winning
type WinRate struct {
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Percent float64 `json:"percent"`
}

// Metrics is summary statistics of a backtest
type Metrics struct {
	TotalReturn       float64    `json:"totalReturn"`
	CAGR              float64    `json:"cagr"`
	MaxDrawdown       float64    `json:"maxDrawdown"`
	Benchmarks        Benchmarks `json:"benchmarks"`
	TradeCount        int        `json:"tradeCount"`
	AvgTradesDaily    float64    `json:"avgTradesDaily"`
	AvgTradesMonthly  float64    `json:"avgTradesMonthly"`
	AvgTradesAnnually float64    `json:"avgTradesAnnually"`
	WinRate           WinRate    `json:"winRate"`
	AvgPositionSize   float64    `json:"avgPositionSize"`
}

// Result is whole output of one backtest, also used as json
type Result struct {
	Strategy       string        `json:"strategy"`
	Instruments    Instruments   `json:"instruments"`
	From           Date          `json:"from"`
	DisplayFrom    Date          `json:"displayFrom"`
	To             Date          `json:"to"`
	InitialCapital float64       `json:"initialCapital"`
	Metrics        Metrics       `json:"metrics"`
	EquityCurve    []EquityPoint `json:"equityCurve"`
	Trades         []Trade       `json:"trades"`
}
