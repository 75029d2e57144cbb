package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/fantaledger/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.PageSize, convey.ShouldEqual, 200)
			convey.So(cfg.InitialBudget, convey.ShouldEqual, 20)
			convey.So(cfg.MaxTopN, convey.ShouldEqual, 100)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.IncludeTradingOnlyMembers, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then secrets should be masked", func() {
			convey.So(cfg.MaskedPassword(), convey.ShouldEqual, "(not set)")
			cfg.Password = "abc"
			convey.So(cfg.MaskedPassword(), convey.ShouldEqual, "****")
			cfg.Password = "correct-horse"
			convey.So(cfg.MaskedPassword(), convey.ShouldEqual, "co****se")
		})
	})
}

func TestConfig_Cutoff(t *testing.T) {
	convey.Convey("Given a config pinned to UTC", t, func() {
		cfg := config.New()
		cfg.Timezone = "UTC"
		cfg.SeasonStart = "23-07-2022 05:00:00"

		convey.Convey("Then the cutoff should parse in that location", func() {
			cutoff, err := cfg.Cutoff()
			convey.So(err, convey.ShouldBeNil)
			convey.So(cutoff.Unix(), convey.ShouldEqual, int64(1658552400))
		})

		convey.Convey("When the season start is malformed", func() {
			cfg.SeasonStart = "2022-07-23"
			_, err := cfg.Cutoff()

			convey.Convey("Then it should be an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			_, err := cfg.Location()

			convey.Convey("Then it should be an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 200)
				convey.So(cfg.RefreshCron, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FANTALEDGER_ADDR", ":8080")
			_ = os.Setenv("FANTALEDGER_PAGE_SIZE", "50")
			_ = os.Setenv("FANTALEDGER_INITIAL_BUDGET", "40.5")
			_ = os.Setenv("FANTALEDGER_LEAGUE_ID", "512626")
			_ = os.Setenv("FANTALEDGER_INCLUDE_TRADING_ONLY_MEMBERS", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 50)
				convey.So(cfg.InitialBudget, convey.ShouldEqual, 40.5)
				convey.So(cfg.LeagueID, convey.ShouldEqual, "512626")
				convey.So(cfg.IncludeTradingOnlyMembers, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file and env overrides", func() {
			yamlContent := `
# league scenario
addr: ":9090"
league_id: "1"
user_id: "2"
page_size: 100
season_start: "01-08-2024 00:00:00"
refresh_cron: "0 */15 * * * *"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FANTALEDGER_CONFIG", tmpFile)
			_ = os.Setenv("FANTALEDGER_PAGE_SIZE", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LeagueID, convey.ShouldEqual, "1")
				convey.So(cfg.UserID, convey.ShouldEqual, "2")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.SeasonStart, convey.ShouldEqual, "01-08-2024 00:00:00")
				convey.So(cfg.RefreshCron, convey.ShouldEqual, "0 */15 * * * *")
				convey.So(cfg.MaxTopN, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FANTALEDGER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FANTALEDGER_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FANTALEDGER_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero page size", func() {
			_ = os.Setenv("FANTALEDGER_PAGE_SIZE", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "page_size")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-numeric page size", func() {
			_ = os.Setenv("FANTALEDGER_PAGE_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.
func clearConfigEnvVars() {
	envVars := []string{
		"FANTALEDGER_CONFIG",
		"FANTALEDGER_ADDR",
		"FANTALEDGER_PAGE_SIZE",
		"FANTALEDGER_INITIAL_BUDGET",
		"FANTALEDGER_LEAGUE_ID",
		"FANTALEDGER_INCLUDE_TRADING_ONLY_MEMBERS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fantaledger-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
