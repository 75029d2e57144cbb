package service

import (
	"github.com/okian/fantaledger/internal/config"
)

// OptionsFromConfig maps the process configuration onto service options.
// The source, recorder and logger are supplied by the caller.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithCredentials(cfg.Email, cfg.Password),
		WithCutoff(cutoff),
		WithLocation(loc),
		WithPageSize(cfg.PageSize),
		WithInitialBudget(cfg.InitialBudget),
		WithTradingOnlyMembers(cfg.IncludeTradingOnlyMembers),
	}, nil
}
