package paper

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// Order and capital bounds of the paper-trading widget.
const (
	MinQty     = 1
	MaxQty     = 100
	MinCapital = 1000
	MaxCapital = 100000

	DefaultCapital = 10000
)

var (
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidCapital       = errors.New("invalid capital")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
)

type position struct {
	qty  int64
	cost decimal.Decimal // total cost basis of the open quantity
}

// Account is an in-memory simulated brokerage account. Nothing is persisted:
// the ledger lives as long as the process.
type Account struct {
	mu       sync.Mutex
	capital  decimal.Decimal
	cash     decimal.Decimal
	realized decimal.Decimal
	pos      map[string]*position
	fills    []model.Fill
	now      func() time.Time
}

// NewAccount creates an account funded with capital.
func NewAccount(capital float64) (*Account, error) {
	if capital < MinCapital || capital > MaxCapital {
		return nil, fmt.Errorf("%w: %.2f not in [%d, %d]", ErrInvalidCapital, capital, MinCapital, MaxCapital)
	}
	c := decimal.NewFromFloat(capital)
	return &Account{
		capital: c,
		cash:    c,
		pos:     make(map[string]*position),
		now:     time.Now,
	}, nil
}

// Buy simulates buying qty units of symbol at price.
func (a *Account) Buy(symbol string, qty int64, price float64) (*model.Fill, error) {
	return a.execute(model.SideBuy, symbol, qty, price)
}

// Sell simulates selling qty units of symbol at price. Short selling is not allowed.
func (a *Account) Sell(symbol string, qty int64, price float64) (*model.Fill, error) {
	return a.execute(model.SideSell, symbol, qty, price)
}

// Execute dispatches on side.
func (a *Account) Execute(side model.Side, symbol string, qty int64, price float64) (*model.Fill, error) {
	return a.execute(side, symbol, qty, price)
}

func (a *Account) execute(side model.Side, symbol string, qty int64, price float64) (*model.Fill, error) {
	if qty < MinQty || qty > MaxQty {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidQuantity, qty, MinQty, MaxQty)
	}
	if !(price > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	px := decimal.NewFromFloat(price)
	amount := px.Mul(decimal.NewFromInt(qty))
	p := a.pos[symbol]

	switch side {
	case model.SideBuy:
		if amount.GreaterThan(a.cash) {
			return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, amount.StringFixed(2), a.cash.StringFixed(2))
		}
		if p == nil {
			p = &position{}
			a.pos[symbol] = p
		}
		a.cash = a.cash.Sub(amount)
		p.qty += qty
		p.cost = p.cost.Add(amount)
	case model.SideSell:
		if p == nil || p.qty < qty {
			held := int64(0)
			if p != nil {
				held = p.qty
			}
			return nil, fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientPosition, qty, symbol, held)
		}
		// Average-cost basis of the units sold.
		basis := p.cost.Mul(decimal.NewFromInt(qty)).Div(decimal.NewFromInt(p.qty))
		a.realized = a.realized.Add(amount.Sub(basis))
		a.cash = a.cash.Add(amount)
		p.qty -= qty
		p.cost = p.cost.Sub(basis)
		if p.qty == 0 {
			delete(a.pos, symbol)
		}
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}

	fill := model.Fill{
		ID:     uuid.NewString(),
		Side:   side,
		Symbol: symbol,
		Qty:    qty,
		Price:  price,
		Amount: amount.InexactFloat64(),
		Time:   a.now(),
	}
	a.fills = append(a.fills, fill)

	log.Printf("[INFO] paper %s %d x %s @ %.2f (cash %s)", side, qty, symbol, price, a.cash.StringFixed(2))
	return &fill, nil
}

// Fills returns a copy of all fills in execution order.
func (a *Account) Fills() []model.Fill {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Fill(nil), a.fills...)
}

// Reset restores the starting capital and clears positions and fills.
func (a *Account) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.capital
	a.realized = decimal.Zero
	a.pos = make(map[string]*position)
	a.fills = nil
}
