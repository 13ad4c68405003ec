package fiscal

import (
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Breakdown is the monetary split of a document. Every field is rounded.
type Breakdown struct {
	Net         decimal.Decimal `json:"net"`
	Tax         decimal.Decimal `json:"tax"`
	Withholding decimal.Decimal `json:"withholding"`
	Total       decimal.Decimal `json:"total"`
}

// Calculator applies the fiscal rules. It holds no mutable state and every
// method is deterministic for a given input.
type Calculator struct {
	consts  Constants
	rounder money.Rounder
}

func NewCalculator(consts Constants) *Calculator {
	return &Calculator{consts: consts, rounder: money.Rounder{Scale: consts.MonetaryDecimals}}
}

func (c *Calculator) Constants() Constants {
	return c.consts
}

func (c *Calculator) Round(d decimal.Decimal) decimal.Decimal {
	return c.rounder.Round(d)
}

// ComputeBreakdown prices quantity units at unitNet under docType. A nil
// docType is an ordinary taxable document without withholding.
func (c *Calculator) ComputeBreakdown(quantity int, unitNet decimal.Decimal, docType *enums.DocType) (Breakdown, error) {
	if quantity <= 0 {
		return Breakdown{}, invalidAmount("quantity must be greater than zero", map[string]any{"quantity": quantity})
	}
	if unitNet.IsNegative() {
		return Breakdown{}, invalidAmount("unit price cannot be negative", map[string]any{"unit_price": unitNet.String()})
	}
	return c.BreakdownFromNet(unitNet.Mul(decimal.NewFromInt(int64(quantity))), docType)
}

// BreakdownFromNet splits an already known net amount.
func (c *Calculator) BreakdownFromNet(net decimal.Decimal, docType *enums.DocType) (Breakdown, error) {
	if err := validateDocType(docType); err != nil {
		return Breakdown{}, err
	}
	if net.IsNegative() {
		return Breakdown{}, invalidAmount("net amount cannot be negative", map[string]any{"net": net.String()})
	}

	b := Breakdown{Net: c.Round(net), Tax: decimal.Zero, Withholding: decimal.Zero}
	if docType == nil || !docType.IsTaxExempt() {
		b.Tax = c.Round(b.Net.Mul(c.consts.VATRate))
	}
	if docType != nil && docType.CarriesWithholding() {
		b.Withholding = c.Round(b.Net.Mul(c.consts.WithholdingRate))
	}
	b.Total = c.total(b.Net, b.Tax, b.Withholding)
	return b, nil
}

// BreakdownWithRate prices a line with an explicit VAT rate, which may be
// written as a percentage or a fraction. Withholding is always zero.
func (c *Calculator) BreakdownWithRate(quantity int, unitNet decimal.Decimal, rate decimal.Decimal) (Breakdown, error) {
	if quantity <= 0 {
		return Breakdown{}, invalidAmount("quantity must be greater than zero", map[string]any{"quantity": quantity})
	}
	if unitNet.IsNegative() {
		return Breakdown{}, invalidAmount("unit price cannot be negative", map[string]any{"unit_price": unitNet.String()})
	}
	normalized, err := NormalizeRate(rate)
	if err != nil {
		return Breakdown{}, err
	}
	net := c.Round(unitNet.Mul(decimal.NewFromInt(int64(quantity))))
	tax := c.Round(net.Mul(normalized))
	return Breakdown{Net: net, Tax: tax, Withholding: decimal.Zero, Total: c.total(net, tax, decimal.Zero)}, nil
}

// BreakdownFromTaxInclusive handles prices entered with VAT included.
// Taxable documents divide VAT out first; exempt documents and fee receipts
// take the amount as the base.
func (c *Calculator) BreakdownFromTaxInclusive(gross decimal.Decimal, docType enums.DocType) (Breakdown, error) {
	if err := validateDocType(&docType); err != nil {
		return Breakdown{}, err
	}
	if gross.IsNegative() {
		return Breakdown{}, invalidAmount("gross amount cannot be negative", map[string]any{"gross": gross.String()})
	}
	base := c.Round(gross)
	if !docType.IsTaxExempt() {
		base = c.NetFromTaxInclusive(base)
	}
	return c.BreakdownFromNet(base, &docType)
}

// NetFromTaxInclusive removes VAT from a tax-inclusive amount.
func (c *Calculator) NetFromTaxInclusive(gross decimal.Decimal) decimal.Decimal {
	return c.Round(gross.Div(one.Add(c.consts.VATRate)))
}

// GrossFromNet adds VAT to a net amount.
func (c *Calculator) GrossFromNet(net decimal.Decimal) decimal.Decimal {
	return c.Round(net.Mul(one.Add(c.consts.VATRate)))
}

// TaxRateFor is the effective VAT rate applied to docType.
func (c *Calculator) TaxRateFor(docType *enums.DocType) decimal.Decimal {
	if docType != nil && docType.IsTaxExempt() {
		return decimal.Zero
	}
	return c.consts.VATRate
}

func (c *Calculator) total(net, tax, withholding decimal.Decimal) decimal.Decimal {
	total := c.Round(net.Add(tax).Sub(withholding))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// NormalizeRate turns 19 into 0.19 and leaves fractions untouched. Negative
// rates and percentages above 100 are rejected.
func NormalizeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, invalidAmount("tax rate cannot be negative", map[string]any{"rate": rate.String()})
	}
	if rate.GreaterThan(hundred) {
		return decimal.Zero, invalidAmount("tax rate cannot exceed 100%", map[string]any{"rate": rate.String()})
	}
	if rate.GreaterThan(one) {
		return rate.Div(hundred), nil
	}
	return rate, nil
}

func validateDocType(docType *enums.DocType) error {
	if docType == nil || docType.IsValid() {
		return nil
	}
	return invalidAmount(fmt.Sprintf("unsupported document type %q", string(*docType)), nil)
}

func invalidAmount(msg string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeInvalidAmount, msg)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
