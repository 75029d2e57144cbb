package model

import (
	"fmt"
	"strings"
)

// Position is the roster position vocabulary.
type Position string

// Positions in platform code order (1..5).
const (
	Keeper     Position = "keeper"
	Defender   Position = "defender"
	Midfielder Position = "midfielder"
	Forward    Position = "forward"
	Trainer    Position = "trainer"
)

var positionsByCode = [...]Position{Keeper, Defender, Midfielder, Forward, Trainer} //nolint:gochecknoglobals // lookup table

// PositionFromCode maps the platform's numeric position code.
func PositionFromCode(code int) (Position, error) {
	if code < 1 || code > len(positionsByCode) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownPosition, code)
	}
	return positionsByCode[code-1], nil
}

// ParsePosition accepts a position name, case-insensitively.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range positionsByCode {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}

// PlayerRecord is a roster snapshot entry. Price is in base units.
type PlayerRecord struct {
	ID               int64    `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Position         Position `json:"position" yaml:"position"`
	Price            int64    `json:"price" yaml:"price"`
	Points           int64    `json:"points" yaml:"points"`
	PointsLastSeason int64    `json:"points_last_season" yaml:"points_last_season"`
	Played           int64    `json:"played" yaml:"played"`
	// Fitness holds per-round scores, newest first. Nil entries were
	// non-numeric in the source (injury or sanction markers).
	Fitness []*int64 `json:"fitness" yaml:"fitness"`
}

// PerformanceRow is a player's season efficiency.
type PerformanceRow struct {
	ID               int64    `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Position         Position `json:"position" yaml:"position"`
	Price            int64    `json:"price" yaml:"price"`
	Points           int64    `json:"points" yaml:"points"`
	Played           int64    `json:"played" yaml:"played"`
	PointsPerGame    float64  `json:"points_per_game" yaml:"points_per_game"`
	PointsPerMillion float64  `json:"points_per_million" yaml:"points_per_million"`
	FitnessTotal     int64    `json:"fitness_total" yaml:"fitness_total"`
}

// MarketOffer is a player currently listed on the league market.
type MarketOffer struct {
	PlayerID int64  `json:"player_id" yaml:"player_id"`
	Name     string `json:"name" yaml:"name"`
	Price    int64  `json:"price" yaml:"price"`
	// Seller is the listing member, or MarketMember for market listings.
	Seller string `json:"seller" yaml:"seller"`
	Date   int64  `json:"date" yaml:"date"`
	Until  int64  `json:"until" yaml:"until"`
}
