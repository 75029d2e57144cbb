package balance

// Option configures a balance computation.
type Option func(*aggregator)

// WithTradingOnlyMembers adds members that appear in sales but never in a
// round result. Their points and bonus count as zero.
func WithTradingOnlyMembers(include bool) Option {
	return func(a *aggregator) {
		a.tradingOnly = include
	}
}
