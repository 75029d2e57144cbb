package model

import (
	"time"

	"github.com/google/uuid"
)

// MarketMember is the synthetic counterparty for the league marketplace.
const MarketMember = "market"

// DateLayout formats sale dates in local time (DD-MM-YYYY HH:MM:SS).
const DateLayout = "02-01-2006 15:04:05"

// SaleRecord is one player movement derived from a market or transfer event.
// Seller and Buyer may be equal; the feed does not guarantee otherwise.
type SaleRecord struct {
	PlayerID  int64  `json:"player_id" yaml:"player_id"`
	Seller    string `json:"seller" yaml:"seller"`
	Buyer     string `json:"buyer" yaml:"buyer"`
	Amount    int64  `json:"amount" yaml:"amount"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	// Date is Timestamp rendered with DateLayout in the configured location.
	Date string `json:"date" yaml:"date"`
}

// RoundResult is one member's outcome for a finished round.
type RoundResult struct {
	Round  string `json:"round_name" yaml:"round_name"`
	Member string `json:"member" yaml:"member"`
	Points int64  `json:"points" yaml:"points"`
	Bonus  int64  `json:"bonus" yaml:"bonus"`
}

// BalanceRow is a member's season points and balance in millions.
type BalanceRow struct {
	Member  string  `json:"member" yaml:"member"`
	Points  int64   `json:"points" yaml:"points"`
	Balance float64 `json:"balance" yaml:"balance"`
}

// Link counts player movements from one member to another.
type Link struct {
	Seller string `json:"seller" yaml:"seller"`
	Buyer  string `json:"buyer" yaml:"buyer"`
	Count  int    `json:"count" yaml:"count"`
}

// Signing summarizes the market purchases made by a member.
type Signing struct {
	Member  string  `json:"member" yaml:"member"`
	Count   int     `json:"count" yaml:"count"`
	Total   int64   `json:"total" yaml:"total"`
	Amounts []int64 `json:"amounts" yaml:"amounts"`
}

// Report is the result of one pipeline run.
type Report struct {
	RunID       uuid.UUID      `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Cutoff      time.Time      `json:"cutoff" yaml:"cutoff"`
	Pages       int            `json:"pages" yaml:"pages"`
	Sales       []SaleRecord   `json:"sales" yaml:"sales"`
	Rounds      []RoundResult  `json:"rounds" yaml:"rounds"`
	Balance     []BalanceRow   `json:"balance" yaml:"balance"`
	Links       []Link         `json:"links" yaml:"links"`
	Signings    []Signing      `json:"signings" yaml:"signings"`
	Players     []PlayerRecord `json:"players" yaml:"players"`
}
