package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/roster"
)

// SaleRow is a sale with the player name resolved from the roster.
type SaleRow struct {
	PlayerID   int64  `yaml:"player_id"`
	PlayerName string `yaml:"player_name"`
	Seller     string `yaml:"seller"`
	Buyer      string `yaml:"buyer"`
	Amount     int64  `yaml:"amount"`
	Timestamp  int64  `yaml:"timestamp"`
	Date       string `yaml:"date"`
}

// SaleRows joins sales with the roster. Unknown players are named roster.MissingName.
func SaleRows(r *model.Report) []SaleRow {
	names := roster.Names(r.Players)
	rows := make([]SaleRow, 0, len(r.Sales))
	for _, s := range r.Sales {
		rows = append(rows, SaleRow{
			PlayerID:   s.PlayerID,
			PlayerName: roster.NameOf(names, s.PlayerID),
			Seller:     s.Seller,
			Buyer:      s.Buyer,
			Amount:     s.Amount,
			Timestamp:  s.Timestamp,
			Date:       s.Date,
		})
	}
	return rows
}

// Encode writes one table of r to w.
func Encode(w io.Writer, f Format, t Table, r *model.Report) error {
	if r == nil {
		return ErrNilReport
	}
	var err error
	switch f {
	case CSV:
		err = encodeCSV(w, t, r)
	case YAML:
		err = encodeYAML(w, t, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, t, err)
	}
	return nil
}

func encodeYAML(w io.Writer, t Table, r *model.Report) error {
	var v any
	switch t {
	case Sales:
		v = SaleRows(r)
	case Rounds:
		v = orEmpty(r.Rounds)
	case Balance:
		v = orEmpty(r.Balance)
	case Players:
		v = orEmpty(r.Players)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTable, t)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func encodeCSV(w io.Writer, t Table, r *model.Report) error {
	var (
		header []string
		rows   [][]string
	)
	i64 := func(v int64) string { return strconv.FormatInt(v, 10) }

	switch t {
	case Sales:
		header = []string{"player_id", "player_name", "seller", "buyer", "amount", "timestamp", "date"}
		for _, s := range SaleRows(r) {
			rows = append(rows, []string{i64(s.PlayerID), s.PlayerName, s.Seller, s.Buyer, i64(s.Amount), i64(s.Timestamp), s.Date})
		}
	case Rounds:
		header = []string{"round_name", "member", "points", "bonus"}
		for _, rr := range r.Rounds {
			rows = append(rows, []string{rr.Round, rr.Member, i64(rr.Points), i64(rr.Bonus)})
		}
	case Balance:
		header = []string{"member", "points", "balance"}
		for _, b := range r.Balance {
			rows = append(rows, []string{b.Member, i64(b.Points), strconv.FormatFloat(b.Balance, 'f', -1, 64)})
		}
	case Players:
		header = []string{"id", "name", "position", "price", "points", "points_last_season", "played", "fitness"}
		for _, p := range r.Players {
			rows = append(rows, []string{
				i64(p.ID), p.Name, string(p.Position), i64(p.Price), i64(p.Points),
				i64(p.PointsLastSeason), i64(p.Played), fitnessCell(p.Fitness),
			})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTable, t)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// fitnessCell renders the fitness history as space separated scores, with
// "-" for rounds without a numeric score.
func fitnessCell(fitness []*int64) string {
	parts := make([]string, len(fitness))
	for i, f := range fitness {
		if f == nil {
			parts[i] = "-"
			continue
		}
		parts[i] = strconv.FormatInt(*f, 10)
	}
	return strings.Join(parts, " ")
}

func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
