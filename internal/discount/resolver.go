package discount

import (
	"github.com/coursekit/pricing/internal/money"
)

// Breakdown is the result of resolving a price against the active discounts.
// It is computed fresh per call and never persisted.
type Breakdown struct {
	Original      money.Money
	AfterSiteWide money.Money
	AfterCode     money.Money
	Final         money.Money

	// SiteWideApplied and CodeApplied are set only when the corresponding
	// step strictly reduced the price, so a 0%-but-active discount does not
	// produce a savings badge.
	SiteWideApplied bool
	CodeApplied     bool

	// SavingsPercent is the whole-number percentage saved off Original.
	SavingsPercent int
}

// Resolve computes the displayed price for a base price under an optional
// site-wide discount and an optional confirmed code. Discounts compound in a
// fixed order: the site-wide percentage applies to the base price, the code
// applies to the site-wide-reduced amount. Fixed-amount codes clamp at zero.
//
// Resolve is pure: it performs no I/O and holds no state. The guarantees
// Final <= AfterSiteWide <= Original and Final >= 0 hold for all valid
// inputs.
func Resolve(base money.Money, sw *SiteWide, code *Code) Breakdown {
	b := Breakdown{
		Original:      base,
		AfterSiteWide: base,
		AfterCode:     base,
		Final:         base,
	}

	if sw != nil && sw.Active {
		b.AfterSiteWide = base.Discounted(sw.Percent)
		b.SiteWideApplied = b.AfterSiteWide.LessThan(base)
	}

	b.AfterCode = b.AfterSiteWide
	if code != nil {
		switch code.Kind {
		case KindFixed:
			b.AfterCode = b.AfterSiteWide.SubClamped(code.Amount)
		case KindPercentage:
			b.AfterCode = b.AfterSiteWide.Discounted(code.Percent)
		}
		b.CodeApplied = b.AfterCode.LessThan(b.AfterSiteWide)
	}

	b.Final = b.AfterCode
	b.SavingsPercent = money.SavingsPercent(base, b.Final)
	return b
}
