// Package feed walks the league board backwards in time and classifies its
// entries into sale and round tables.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fantaledger/internal/domain/model"
)

// FetchFunc returns one page of board events starting at offset, newest
// first. Callers impose any timeout through ctx.
type FetchFunc func(ctx context.Context, offset, limit int) ([]model.Event, error)

// Result holds the records accumulated by one run.
type Result struct {
	Sales  []model.SaleRecord
	Rounds []model.RoundResult
	// Pages counts fetcher calls that returned successfully.
	Pages int
	// Events counts visited events per type, including ignored types.
	Events map[model.EventType]int
}

type paginator struct {
	limit int
	loc   *time.Location
}

// Paginate fetches pages until it meets an event older than cutoff (unix
// seconds) or an empty page. The cutoff event and everything after it are
// never visited. A fetch error or a malformed event aborts the run with no
// partial result.
func Paginate(ctx context.Context, fetch FetchFunc, cutoff int64, opts ...Option) (*Result, error) {
	p := &paginator{limit: DefaultLimit, loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	if p.limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, p.limit)
	}
	if fetch == nil {
		return nil, ErrNilFetch
	}

	res := &Result{
		Sales:  []model.SaleRecord{},
		Rounds: []model.RoundResult{},
		Events: make(map[model.EventType]int),
	}

	for offset := 0; ; offset += p.limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, offset, p.limit)
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d: %w", ErrFetch, offset, err)
		}
		res.Pages++
		if len(page) == 0 {
			return res, nil
		}

		for _, ev := range page {
			if ev.Timestamp < cutoff {
				return res, nil
			}
			if err := p.classify(res, ev); err != nil {
				return nil, err
			}
		}
		// Short pages still advance by limit; only an empty page or the
		// cutoff ends the walk.
	}
}

func (p *paginator) classify(res *Result, ev model.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	res.Events[ev.Type]++

	date := time.Unix(ev.Timestamp, 0).In(p.loc).Format(model.DateLayout)

	switch payload := ev.Payload.(type) {
	case model.MarketPayload:
		for _, s := range payload.Sales {
			res.Sales = append(res.Sales, model.SaleRecord{
				PlayerID:  s.Player,
				Seller:    model.MarketMember,
				Buyer:     s.To.Name,
				Amount:    s.Amount,
				Timestamp: ev.Timestamp,
				Date:      date,
			})
		}
	case model.TransferPayload:
		for _, t := range payload.Transfers {
			buyer := model.MarketMember
			if t.To != nil {
				buyer = t.To.Name
			}
			res.Sales = append(res.Sales, model.SaleRecord{
				PlayerID:  t.Player,
				Seller:    t.From.Name,
				Buyer:     buyer,
				Amount:    t.Amount,
				Timestamp: ev.Timestamp,
				Date:      date,
			})
		}
	case model.RoundFinishedPayload:
		for _, r := range payload.Results {
			points, bonus := r.Resolve()
			res.Rounds = append(res.Rounds, model.RoundResult{
				Round:  payload.Round.Name,
				Member: r.User.Name,
				Points: points,
				Bonus:  bonus,
			})
		}
	}
	return nil
}
