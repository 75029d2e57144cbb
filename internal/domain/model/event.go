// Package model contains domain models passed between layers.
package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// EventType tags a board entry.
type EventType string

// Event types read from the league board. Anything else decodes as an
// ignored event with a nil payload.
const (
	EventMarket        EventType = "market"
	EventTransfer      EventType = "transfer"
	EventRoundFinished EventType = "roundFinished"
)

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Event is one entry of the league board, newest first.
type Event struct {
	Type      EventType
	Timestamp int64 // unix seconds
	Payload   Payload
}

// Payload is the type-specific content of an Event. The set is closed:
// MarketPayload, TransferPayload and RoundFinishedPayload.
type Payload interface {
	eventType() EventType
}

// Member is a league participant reference as embedded in payloads.
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

// MarketSale is a player bought from the market pseudo-account.
type MarketSale struct {
	Player int64   `json:"player" validate:"required"`
	To     *Member `json:"to" validate:"required"`
	Amount int64   `json:"amount"`
}

// MarketPayload is the content of a market event.
type MarketPayload struct {
	Sales []MarketSale `validate:"dive"`
}

func (MarketPayload) eventType() EventType { return EventMarket }

// Transfer is a player sold by a member, either to another member or,
// when To is absent, back to the market.
type Transfer struct {
	Player int64   `json:"player" validate:"required"`
	From   *Member `json:"from" validate:"required"`
	To     *Member `json:"to,omitempty" validate:"omitempty"`
	Amount int64   `json:"amount"`
}

// TransferPayload is the content of a transfer event.
type TransferPayload struct {
	Transfers []Transfer `validate:"dive"`
}

func (TransferPayload) eventType() EventType { return EventTransfer }

// Round names a scoring period.
type Round struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

// RoundEntry is one member's line in a finished round. Points and Bonus
// stay optional here; Resolve applies the zero-fill policy.
type RoundEntry struct {
	User   *Member `json:"user" validate:"required"`
	Points *int64  `json:"points,omitempty"`
	Bonus  *int64  `json:"bonus,omitempty"`
}

// Resolve returns points and bonus. An entry without a bonus key counts as
// zero for both: the platform omits the key for members that did not score
// in the round, and absence means zero, not unknown.
func (e RoundEntry) Resolve() (points, bonus int64) {
	if e.Bonus == nil {
		return 0, 0
	}
	if e.Points != nil {
		points = *e.Points
	}
	return points, *e.Bonus
}

// RoundFinishedPayload is the content of a roundFinished event.
type RoundFinishedPayload struct {
	Round   *Round       `json:"round" validate:"required"`
	Results []RoundEntry `json:"results" validate:"required,dive"`
}

func (RoundFinishedPayload) eventType() EventType { return EventRoundFinished }

// Validate checks that the payload matches the event type and carries every
// field the type requires.
func (e Event) Validate() error {
	var p Payload
	switch e.Type {
	case EventMarket, EventTransfer, EventRoundFinished:
		p = e.Payload
	default:
		return nil
	}
	if p == nil || p.eventType() != e.Type {
		return fmt.Errorf("%w: %s event at %d has payload %T", ErrMalformedEvent, e.Type, e.Timestamp, e.Payload)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s event at %d: %w", ErrMalformedEvent, e.Type, e.Timestamp, err)
	}
	return nil
}

// wireEvent is the board JSON shape: {"type", "date", "content"}.
type wireEvent struct {
	Type    EventType       `json:"type"`
	Date    *int64          `json:"date"`
	Content json.RawMessage `json:"content"`
}

// wireSale and wireTransfer keep the amount optional so a missing key is
// told apart from a zero amount.
type wireSale struct {
	Player int64   `json:"player"`
	To     *Member `json:"to"`
	Amount *int64  `json:"amount"`
}

type wireTransfer struct {
	Player int64   `json:"player"`
	From   *Member `json:"from"`
	To     *Member `json:"to"`
	Amount *int64  `json:"amount"`
}

// UnmarshalJSON decodes a board entry into its typed payload and validates it.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if w.Date == nil {
		return fmt.Errorf("%w: %s event without date", ErrMalformedEvent, w.Type)
	}

	ev := Event{Type: w.Type, Timestamp: *w.Date}
	switch w.Type {
	case EventMarket:
		var raw []wireSale
		if err := decodeContent(w, &raw); err != nil {
			return err
		}
		sales := make([]MarketSale, 0, len(raw))
		for i, r := range raw {
			if r.Amount == nil {
				return missingAmount(w, i)
			}
			sales = append(sales, MarketSale{Player: r.Player, To: r.To, Amount: *r.Amount})
		}
		ev.Payload = MarketPayload{Sales: sales}
	case EventTransfer:
		var raw []wireTransfer
		if err := decodeContent(w, &raw); err != nil {
			return err
		}
		transfers := make([]Transfer, 0, len(raw))
		for i, r := range raw {
			if r.Amount == nil {
				return missingAmount(w, i)
			}
			transfers = append(transfers, Transfer{Player: r.Player, From: r.From, To: r.To, Amount: *r.Amount})
		}
		ev.Payload = TransferPayload{Transfers: transfers}
	case EventRoundFinished:
		var round RoundFinishedPayload
		if err := decodeContent(w, &round); err != nil {
			return err
		}
		ev.Payload = round
	}

	if err := ev.Validate(); err != nil {
		return err
	}
	*e = ev
	return nil
}

func decodeContent(w wireEvent, dst any) error {
	if len(w.Content) == 0 || string(w.Content) == "null" {
		return fmt.Errorf("%w: %s event at %d without content", ErrMalformedEvent, w.Type, *w.Date)
	}
	if err := json.Unmarshal(w.Content, dst); err != nil {
		return fmt.Errorf("%w: %s event at %d: %w", ErrMalformedEvent, w.Type, *w.Date, err)
	}
	return nil
}

func missingAmount(w wireEvent, idx int) error {
	return fmt.Errorf("%w: %s event at %d: entry %d without amount", ErrMalformedEvent, w.Type, *w.Date, idx)
}
