package scoring

// RatioTerms are the forward-filled quarterly fundamentals joined to a single
// daily price. Nil terms propagate to nil ratios.
type RatioTerms struct {
	Price              float64
	SharesOutstanding  *float64
	NetIncome          *float64
	CommonEquity       *float64
	SalesRevenue       *float64
	OperatingCashFlow  *float64
	CapitalExpenditure *float64
}

// DailyRatios derives the daily valuation-ratio metrics from a price and its
// quarterly terms. Ratios whose terms are missing or whose denominator is
// zero come back nil; callers treat nil as indeterminate, not zero.
func DailyRatios(t RatioTerms) map[string]*float64 {
	marketCap := mul(&t.Price, t.SharesOutstanding)

	freeCashFlow := sub(t.OperatingCashFlow, t.CapitalExpenditure)

	return map[string]*float64{
		"pe_ratio":                div(marketCap, t.NetIncome),
		"price_to_book":           div(marketCap, t.CommonEquity),
		"price_to_sales":          div(&t.Price, t.SalesRevenue),
		"price_to_free_cash_flow": div(&t.Price, freeCashFlow),
	}
}

func mul(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a * *b
	return &v
}

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

func div(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	return &v
}
