package biwenger

import (
	"net/http"
	"time"

	"github.com/okian/fantaledger/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every upstream request. The client is copied first so a
// shared client passed to WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithLoginURL sets the authentication endpoint.
func WithLoginURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.loginURL = u
		}
	}
}

// WithLeagueURL sets the league API prefix; the league id and /board are appended.
func WithLeagueURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.leagueURL = u
		}
	}
}

// WithPlayersURL sets the JSONP roster endpoint.
func WithPlayersURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.playersURL = u
		}
	}
}

// WithMarketURL sets the market listing endpoint.
func WithMarketURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.marketURL = u
		}
	}
}

// WithLeague sets the league and user the session acts for.
func WithLeague(leagueID, userID string) Option {
	return func(c *Client) {
		c.leagueID = leagueID
		c.userID = userID
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
