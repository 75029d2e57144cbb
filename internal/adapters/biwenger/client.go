// Package biwenger is the HTTP client for the fantasy platform: login, the
// league board feed, the player roster and the market listing.
package biwenger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/fantaledger/internal/domain/feed"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
)

// Endpoint labels used for upstream metrics.
const (
	EndpointLogin   = "login"
	EndpointBoard   = "board"
	EndpointPlayers = "players"
	EndpointMarket  = "market"
)

const (
	defaultTimeout = 15 * time.Second
	bodyStatusOK   = 200
)

// Session carries the bearer token issued by Login.
type Session struct {
	Token string
}

// Client talks to the platform API. It keeps no state between calls other
// than its configuration, so one Client may serve concurrent runs.
type Client struct {
	http       *http.Client
	loginURL   string
	leagueURL  string
	playersURL string
	marketURL  string
	leagueID   string
	userID     string
	log        logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the {"status", "data"} wrapper used by every data endpoint.
type envelope[T any] struct {
	Status int `json:"status"`
	Data   T   `json:"data"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	form := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrLogin, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req, EndpointLogin)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrLogin, err)
	}
	if status != http.StatusOK {
		return Session{}, fmt.Errorf("%w: status code %d", ErrLogin, status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Session{}, fmt.Errorf("%w: login: %w", ErrDecode, err)
	}
	if out.Token == "" {
		return Session{}, fmt.Errorf("%w: empty token", ErrLogin)
	}
	c.log.Debug(ctx, "logged in", logger.String("league", c.leagueID))
	return Session{Token: out.Token}, nil
}

// BoardPage fetches one page of the league board, newest first.
func (c *Client) BoardPage(ctx context.Context, s Session, offset, limit int) ([]model.Event, error) {
	u := fmt.Sprintf("%s%s/board?offset=%d&limit=%d", c.leagueURL, url.PathEscape(c.leagueID), offset, limit)
	req, err := c.authorized(ctx, s, u)
	if err != nil {
		return nil, err
	}

	body, err := c.fetchOK(req, EndpointBoard)
	if err != nil {
		return nil, err
	}

	var env envelope[[]json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: board: %w", ErrDecode, err)
	}
	if env.Status != bodyStatusOK {
		return nil, fmt.Errorf("%w: board body status %d", ErrStatus, env.Status)
	}

	events := make([]model.Event, 0, len(env.Data))
	for _, raw := range env.Data {
		var ev model.Event
		if err := ev.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("board offset %d: %w", offset, err)
		}
		events = append(events, ev)
	}
	c.log.Debug(ctx, "board page fetched",
		logger.Int("offset", offset),
		logger.Int("limit", limit),
		logger.Int("events", len(events)),
	)
	return events, nil
}

// FetchFunc binds BoardPage to a session for feed.Paginate.
func (c *Client) FetchFunc(s Session) feed.FetchFunc {
	return func(ctx context.Context, offset, limit int) ([]model.Event, error) {
		return c.BoardPage(ctx, s, offset, limit)
	}
}

type wirePlayer struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Position         int    `json:"position"`
	Price            int64  `json:"price"`
	Points           int64  `json:"points"`
	PlayedHome       int64  `json:"playedHome"`
	PlayedAway       int64  `json:"playedAway"`
	PointsLastSeason int64  `json:"pointsLastSeason"`
	Fitness          []any  `json:"fitness"`
}

// Players fetches the competition roster, sorted by player id. The endpoint
// answers JSONP; the callback wrapper is stripped before decoding.
func (c *Client) Players(ctx context.Context) ([]model.PlayerRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.playersURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatus, err)
	}
	body, err := c.fetchOK(req, EndpointPlayers)
	if err != nil {
		return nil, err
	}

	payload, err := stripJSONP(body)
	if err != nil {
		return nil, err
	}
	var env envelope[struct {
		Players map[string]wirePlayer `json:"players"`
	}]
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: players: %w", ErrDecode, err)
	}
	if env.Status != bodyStatusOK {
		return nil, fmt.Errorf("%w: players body status %d", ErrStatus, env.Status)
	}

	players := make([]model.PlayerRecord, 0, len(env.Data.Players))
	for key, wp := range env.Data.Players {
		pos, err := model.PositionFromCode(wp.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: player %s: %w", ErrDecode, key, err)
		}
		players = append(players, model.PlayerRecord{
			ID:               wp.ID,
			Name:             wp.Name,
			Position:         pos,
			Price:            wp.Price,
			Points:           wp.Points,
			PointsLastSeason: wp.PointsLastSeason,
			Played:           wp.PlayedHome + wp.PlayedAway,
			Fitness:          numericFitness(wp.Fitness),
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	c.log.Debug(ctx, "roster fetched", logger.Int("players", len(players)))
	return players, nil
}

type wireOffer struct {
	Date   int64 `json:"date"`
	Until  int64 `json:"until"`
	Price  int64 `json:"price"`
	Player struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
	User *struct {
		Name string `json:"name"`
	} `json:"user"`
}

// Market fetches the players currently offered on the league market.
func (c *Client) Market(ctx context.Context, s Session) ([]model.MarketOffer, error) {
	req, err := c.authorized(ctx, s, c.marketURL)
	if err != nil {
		return nil, err
	}
	body, err := c.fetchOK(req, EndpointMarket)
	if err != nil {
		return nil, err
	}

	var env envelope[struct {
		Sales []wireOffer `json:"sales"`
	}]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: market: %w", ErrDecode, err)
	}
	if env.Status != bodyStatusOK {
		return nil, fmt.Errorf("%w: market body status %d", ErrStatus, env.Status)
	}

	offers := make([]model.MarketOffer, 0, len(env.Data.Sales))
	for _, o := range env.Data.Sales {
		seller := model.MarketMember
		if o.User != nil && o.User.Name != "" {
			seller = o.User.Name
		}
		offers = append(offers, model.MarketOffer{
			PlayerID: o.Player.ID,
			Name:     o.Player.Name,
			Price:    o.Price,
			Seller:   seller,
			Date:     o.Date,
			Until:    o.Until,
		})
	}
	return offers, nil
}

func (c *Client) authorized(ctx context.Context, s Session, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatus, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("X-League", c.leagueID)
	req.Header.Set("X-User", c.userID)
	return req, nil
}

// fetchOK performs req and requires a 2xx answer.
func (c *Client) fetchOK(req *http.Request, endpoint string) ([]byte, error) {
	body, status, err := c.do(req, endpoint)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s status code %d", ErrStatus, endpoint, status)
	}
	return body, nil
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, int, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", msSince(start))
		return nil, 0, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), msSince(start))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s read body: %w", endpoint, err)
	}
	return body, resp.StatusCode, nil
}

// stripJSONP returns the text between the first '(' and the last ')'.
func stripJSONP(body []byte) ([]byte, error) {
	open := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if open < 0 || end <= open {
		return nil, fmt.Errorf("%w: players: missing JSONP wrapper", ErrDecode)
	}
	return body[open+1 : end], nil
}

// numericFitness keeps integral entries and maps everything else to nil.
func numericFitness(raw []any) []*int64 {
	out := make([]*int64, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			continue
		}
		n := int64(f)
		out[i] = &n
	}
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
