package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jumpei00/levertrade/app/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	tenK    = decimal.NewFromInt(10000)
)

// BrokerConfig is account and cost model of the simulated broker.
// FeeBps is charged on notional of each fill, SlippageBps moves the fill price against the order
type BrokerConfig struct {
	InitialCapital float64
	FeeBps         float64
	SlippageBps    float64
	Instruments    models.Instruments
}

type position struct {
	role          models.Role
	quantity      decimal.Decimal
	entryDate     models.Date
	entryPrice    decimal.Decimal
	cost          decimal.Decimal
	entryEquity   decimal.Decimal
	allocationPct float64
}

// Broker holds simulated cash and at most one position.
// Every fill happens at the close of the day passed in, adjusted by slippage
type Broker struct {
	cfg      BrokerConfig
	feeRate  decimal.Decimal
	slipRate decimal.Decimal

	cash     decimal.Decimal
	realized decimal.Decimal
	pos      *position
	lastMark decimal.Decimal
	trades   []models.Trade
}

// NewBroker is constructor of Broker
func NewBroker(cfg BrokerConfig) *Broker {
	return &Broker{
		cfg:      cfg,
		feeRate:  decimal.NewFromFloat(cfg.FeeBps).Div(tenK),
		slipRate: decimal.NewFromFloat(cfg.SlippageBps).Div(tenK),
		cash:     decimal.NewFromFloat(cfg.InitialCapital),
		trades:   []models.Trade{},
	}
}

func tradable(b *models.Bar) bool {
	return b != nil && !b.Filled && b.Close > 0
}

// Submit applies decision using the bars of day.
// Decisions whose bar is missing or forward filled are deferred, the account stays as it is
func (b *Broker) Submit(d models.Decision, day models.SimulationDay) error {
	if d.AllocationPct < 0 || d.AllocationPct > 100 {
		return &models.InvariantError{Date: day.Date, Reason: fmt.Sprintf("allocation %.2f out of range", d.AllocationPct)}
	}
	if d.Target == models.RoleNone || d.AllocationPct == 0 {
		if b.pos == nil {
			return nil
		}
		if !tradable(day.Bar(b.pos.role)) {
			return nil
		}
		return b.close(day.Date, decimal.NewFromFloat(day.Bar(b.pos.role).Close))
	}

	if b.pos != nil && b.pos.role == d.Target && b.pos.allocationPct == d.AllocationPct {
		return nil
	}
	target := day.Bar(d.Target)
	if !tradable(target) {
		return nil
	}
	if b.pos != nil {
		if !tradable(day.Bar(b.pos.role)) {
			return nil
		}
		if err := b.close(day.Date, decimal.NewFromFloat(day.Bar(b.pos.role).Close)); err != nil {
			return err
		}
	}
	return b.open(d, day.Date, decimal.NewFromFloat(target.Close))
}

// Liquidate closes open position at the last price of day,
// falling back to the last known price when the held instrument has no bar
func (b *Broker) Liquidate(day models.SimulationDay) error {
	if b.pos == nil {
		return nil
	}
	price := b.lastMark
	if bar := day.Bar(b.pos.role); bar != nil && bar.Close > 0 {
		price = decimal.NewFromFloat(bar.Close)
	}
	return b.close(day.Date, price)
}

func (b *Broker) open(d models.Decision, date models.Date, mark decimal.Decimal) error {
	equity := b.cash
	if !equity.IsPositive() {
		return &models.InsufficientEquityError{Date: date, Equity: equity.InexactFloat64()}
	}

	budget := equity.Mul(decimal.NewFromFloat(d.AllocationPct)).Div(hundred)
	notional := budget.Div(one.Add(b.feeRate))
	price := mark.Mul(one.Add(b.slipRate))
	quantity := notional.Div(price)

	cash := b.cash.Sub(budget)
	if cash.IsNegative() {
		return &models.InvariantError{Date: date, Reason: fmt.Sprintf("cash %s after buying %s", cash, b.cfg.Instruments.Symbol(d.Target))}
	}

	b.cash = cash
	b.lastMark = mark
	b.pos = &position{
		role:          d.Target,
		quantity:      quantity,
		entryDate:     date,
		entryPrice:    price,
		cost:          budget,
		entryEquity:   equity,
		allocationPct: d.AllocationPct,
	}
	return nil
}

func (b *Broker) close(date models.Date, mark decimal.Decimal) error {
	p := b.pos
	if !date.After(p.entryDate) {
		return &models.InvariantError{Date: date, Reason: fmt.Sprintf("exit not after entry %v", p.entryDate)}
	}

	price := mark.Mul(one.Sub(b.slipRate))
	proceeds := p.quantity.Mul(price)
	net := proceeds.Sub(proceeds.Mul(b.feeRate))
	pnl := net.Sub(p.cost)

	b.cash = b.cash.Add(net)
	b.realized = b.realized.Add(pnl)
	b.lastMark = decimal.Zero
	b.pos = nil

	exit := date
	b.trades = append(b.trades, models.Trade{
		Symbol:             b.cfg.Instruments.Symbol(p.role),
		EntryDate:          p.entryDate,
		ExitDate:           &exit,
		EntryPrice:         p.entryPrice.InexactFloat64(),
		ExitPrice:          price.InexactFloat64(),
		Quantity:           p.quantity.InexactFloat64(),
		PositionSizePct:    p.allocationPct,
		DaysHeld:           p.entryDate.DaysUntil(date),
		ReturnPct:          price.Div(p.entryPrice).Sub(one).Mul(hundred).InexactFloat64(),
		PortfolioReturnPct: pnl.Div(p.entryEquity).Mul(hundred).InexactFloat64(),
		PnL:                pnl.InexactFloat64(),
	})
	return nil
}

func (b *Broker) equity() decimal.Decimal {
	if b.pos == nil {
		return b.cash
	}
	return b.cash.Add(b.pos.quantity.Mul(b.lastMark))
}

// Equity marks the position to the close of day and returns total equity
func (b *Broker) Equity(day models.SimulationDay) (float64, error) {
	if b.pos != nil {
		if bar := day.Bar(b.pos.role); bar != nil && bar.Close > 0 {
			b.lastMark = decimal.NewFromFloat(bar.Close)
		}
	}
	eq := b.equity()
	if !eq.IsPositive() {
		return 0, &models.InsufficientEquityError{Date: day.Date, Equity: eq.InexactFloat64()}
	}
	return eq.InexactFloat64(), nil
}

// Account returns snapshot of the account, marked at the last known price
func (b *Broker) Account() models.AccountView {
	av := models.AccountView{
		Cash:   b.cash.InexactFloat64(),
		Equity: b.equity().InexactFloat64(),
	}
	if b.pos != nil {
		av.Role = b.pos.role
		av.Symbol = b.cfg.Instruments.Symbol(b.pos.role)
		av.AllocationPct = b.pos.allocationPct
	}
	return av
}

// Trades returns closed trades in order
func (b *Broker) Trades() []models.Trade {
	return b.trades
}

// Cash returns cash balance
func (b *Broker) Cash() float64 {
	return b.cash.InexactFloat64()
}

// RealizedPnL is sum of P&L of closed trades
func (b *Broker) RealizedPnL() float64 {
	return b.realized.InexactFloat64()
}

// Flat reports whether no position is open
func (b *Broker) Flat() bool {
	return b.pos == nil
}
