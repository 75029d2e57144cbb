// Package roster provides read-only queries over a player roster snapshot.
package roster

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/fantaledger/internal/domain/model"
)

// MissingName labels a player id absent from the roster.
const MissingName = "Missing"

var million = decimal.NewFromInt(1_000_000) //nolint:gochecknoglobals // constant decimal

// RankTopLastSeason returns up to topN players of position whose price lies
// in [minMillions, maxMillions], highest last-season points first. Ties keep
// roster order. The band is scaled to base units before comparing.
func RankTopLastSeason(players []model.PlayerRecord, position model.Position, minMillions, maxMillions float64, topN int) []model.PlayerRecord {
	lo := decimal.NewFromFloat(minMillions).Mul(million)
	hi := decimal.NewFromFloat(maxMillions).Mul(million)

	out := make([]model.PlayerRecord, 0)
	if topN <= 0 {
		return out
	}
	for _, p := range players {
		if p.Position != position {
			continue
		}
		price := decimal.NewFromInt(p.Price)
		if price.LessThan(lo) || price.GreaterThan(hi) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PointsLastSeason > out[j].PointsLastSeason })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// FitnessTotal sums the numeric fitness entries of a player.
func FitnessTotal(p model.PlayerRecord) int64 {
	var total int64
	for _, f := range p.Fitness {
		if f != nil {
			total += *f
		}
	}
	return total
}

// Performance reports efficiency for players that scored and played,
// ordered by points per game.
func Performance(players []model.PlayerRecord) []model.PerformanceRow {
	rows := make([]model.PerformanceRow, 0, len(players))
	for _, p := range players {
		if p.Points <= 0 || p.Played <= 0 {
			continue
		}
		row := model.PerformanceRow{
			ID:            p.ID,
			Name:          p.Name,
			Position:      p.Position,
			Price:         p.Price,
			Points:        p.Points,
			Played:        p.Played,
			PointsPerGame: float64(p.Points) / float64(p.Played),
			FitnessTotal:  FitnessTotal(p),
		}
		if p.Price > 0 {
			row.PointsPerMillion, _ = decimal.NewFromInt(p.Points).
				Div(decimal.NewFromInt(p.Price).Div(million)).
				Float64()
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PointsPerGame > rows[j].PointsPerGame })
	return rows
}

// Names indexes player names by id.
func Names(players []model.PlayerRecord) map[int64]string {
	names := make(map[int64]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

// NameOf looks up id in names, falling back to MissingName.
func NameOf(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return MissingName
}
