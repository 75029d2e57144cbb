// Package balance derives per-member standings from sale and round tables.
package balance

import (
	"sort"

	"github.com/okian/fantaledger/internal/domain/model"
)

// Million converts between base units and millions.
const Million = 1_000_000

type aggregator struct {
	tradingOnly bool
}

type totals struct {
	sold, bought, bonus, points int64
	rounds                      bool
}

// Compute returns one BalanceRow per member, sorted by member name:
//
//	balance = (sold - bought + initialBudgetMillions*1e6 + bonus) / 1e6
//
// The member universe is every member with a round result; WithTradingOnlyMembers
// widens it to members that only traded. The market pseudo-account never
// gets a row. Missing sums are zero.
func Compute(initialBudgetMillions float64, sales []model.SaleRecord, rounds []model.RoundResult, opts ...Option) []model.BalanceRow {
	a := &aggregator{}
	for _, opt := range opts {
		opt(a)
	}

	byMember := make(map[string]*totals)
	get := func(member string) *totals {
		t, ok := byMember[member]
		if !ok {
			t = &totals{}
			byMember[member] = t
		}
		return t
	}

	for _, s := range sales {
		if s.Seller != model.MarketMember {
			get(s.Seller).sold += s.Amount
		}
		if s.Buyer != model.MarketMember {
			get(s.Buyer).bought += s.Amount
		}
	}
	for _, r := range rounds {
		t := get(r.Member)
		t.bonus += r.Bonus
		t.points += r.Points
		t.rounds = true
	}

	budget := initialBudgetMillions * Million
	rows := make([]model.BalanceRow, 0, len(byMember))
	for member, t := range byMember {
		if !t.rounds && !a.tradingOnly {
			continue
		}
		rows = append(rows, model.BalanceRow{
			Member:  member,
			Points:  t.points,
			Balance: (float64(t.sold-t.bought) + budget + float64(t.bonus)) / Million,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Member < rows[j].Member })
	return rows
}

// Links counts member-to-member movements. Rows touching the market are
// skipped. Output is sorted by seller, then buyer.
func Links(sales []model.SaleRecord) []model.Link {
	type pair struct{ seller, buyer string }
	counts := make(map[pair]int)
	for _, s := range sales {
		if s.Seller == model.MarketMember || s.Buyer == model.MarketMember {
			continue
		}
		counts[pair{s.Seller, s.Buyer}]++
	}

	links := make([]model.Link, 0, len(counts))
	for p, n := range counts {
		links = append(links, model.Link{Seller: p.seller, Buyer: p.buyer, Count: n})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Seller != links[j].Seller {
			return links[i].Seller < links[j].Seller
		}
		return links[i].Buyer < links[j].Buyer
	})
	return links
}

// Signings collects the amounts each member paid the market, most active
// first. Amounts keep feed order.
func Signings(sales []model.SaleRecord) []model.Signing {
	byMember := make(map[string]*model.Signing)
	for _, s := range sales {
		if s.Seller != model.MarketMember || s.Buyer == model.MarketMember {
			continue
		}
		sg, ok := byMember[s.Buyer]
		if !ok {
			sg = &model.Signing{Member: s.Buyer}
			byMember[s.Buyer] = sg
		}
		sg.Count++
		sg.Total += s.Amount
		sg.Amounts = append(sg.Amounts, s.Amount)
	}

	out := make([]model.Signing, 0, len(byMember))
	for _, sg := range byMember {
		out = append(out, *sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Member < out[j].Member
	})
	return out
}
