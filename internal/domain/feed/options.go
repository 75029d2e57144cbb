package feed

import "time"

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 200

// Option configures a pagination run.
type Option func(*paginator)

// WithLimit sets the page size requested from the fetcher.
func WithLimit(limit int) Option {
	return func(p *paginator) {
		p.limit = limit
	}
}

// WithLocation sets the location used to render sale dates.
func WithLocation(loc *time.Location) Option {
	return func(p *paginator) {
		if loc != nil {
			p.loc = loc
		}
	}
}
