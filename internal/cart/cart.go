// Package cart holds the storefront shopping cart: a list of lines changed
// only through reducer actions, with totals derived on every read.
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidProduct  = errors.New("product has no id or an out of range price")
)

var hundred = decimal.NewFromInt(100)

// DefaultTaxRate applies when a store is built without WithTaxRate.
var DefaultTaxRate = decimal.RequireFromString("0.10")

type Product struct {
	ID              string
	Name            string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	Image           string
}

type Line struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Quantity        int             `json:"quantity"`
	Image           string          `json:"image,omitempty"`
	AddedAt         time.Time       `json:"addedAt"`
}

// EffectivePrice is the unit price after the line discount.
func (l Line) EffectivePrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(1).Sub(l.DiscountPercent.Div(hundred)))
}

func (l Line) Amount() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals is the only way totals are produced; nothing caches them.
func ComputeTotals(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	tax := subtotal.Mul(taxRate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// Action is one cart transition. Reduce applies it.
type Action interface {
	apply(lines []Line, now time.Time) ([]Line, error)
}

type AddItem struct{ Product Product }

type SetQuantity struct {
	ID       string
	Quantity int
}

// DecrementItem removes one unit; the line goes away with its last unit.
type DecrementItem struct{ ID string }

type RemoveItem struct{ ID string }

type Clear struct{}

// Reduce returns the lines after a. The input slice is never modified.
func Reduce(lines []Line, a Action, now time.Time) ([]Line, error) {
	if a == nil {
		return nil, fmt.Errorf("cart: nil action")
	}
	return a.apply(clone(lines), now)
}

func (a AddItem) apply(lines []Line, now time.Time) ([]Line, error) {
	p := a.Product
	if p.ID == "" || p.Price.IsNegative() || p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		return nil, ErrInvalidProduct
	}
	if i := indexOf(lines, p.ID); i >= 0 {
		lines[i].Quantity++
		lines[i].AddedAt = now
		return lines, nil
	}
	return append(lines, Line{
		ID:              p.ID,
		Name:            p.Name,
		UnitPrice:       p.Price,
		DiscountPercent: p.DiscountPercent,
		Quantity:        1,
		Image:           p.Image,
		AddedAt:         now,
	}), nil
}

func (a SetQuantity) apply(lines []Line, _ time.Time) ([]Line, error) {
	if a.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if i := indexOf(lines, a.ID); i >= 0 {
		lines[i].Quantity = a.Quantity
	}
	return lines, nil
}

func (a DecrementItem) apply(lines []Line, _ time.Time) ([]Line, error) {
	i := indexOf(lines, a.ID)
	if i < 0 {
		return lines, nil
	}
	if lines[i].Quantity <= 1 {
		return append(lines[:i], lines[i+1:]...), nil
	}
	lines[i].Quantity--
	return lines, nil
}

func (a RemoveItem) apply(lines []Line, _ time.Time) ([]Line, error) {
	if i := indexOf(lines, a.ID); i >= 0 {
		return append(lines[:i], lines[i+1:]...), nil
	}
	return lines, nil
}

func (Clear) apply([]Line, time.Time) ([]Line, error) {
	return []Line{}, nil
}

func indexOf(lines []Line, id string) int {
	for i := range lines {
		if lines[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
