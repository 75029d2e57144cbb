package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOptionsFromConfig(t *testing.T) {
	Convey("Given a process configuration", t, func() {
		cfg := config.New()
		cfg.Timezone = "UTC"
		cfg.SeasonStart = "23-07-2022 05:00:00"
		cfg.PageSize = 50
		cfg.InitialBudget = 30
		cfg.IncludeTradingOnlyMembers = true

		Convey("When it is mapped onto a service", func() {
			opts, err := service.OptionsFromConfig(cfg)
			So(err, ShouldBeNil)
			svc := service.New(append(opts, service.WithSource(newFake()))...)
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()
			stats := svc.GetStats()

			Convey("Then the settings should be reflected in the stats", func() {
				So(stats["pageSize"], ShouldEqual, 50)
				So(stats["initialBudget"], ShouldEqual, 30.0)
				So(stats["tradingOnlyMembers"], ShouldBeTrue)
				So(stats["cutoff"], ShouldEqual, int64(1658552400))
			})
		})

		Convey("When the season start is malformed", func() {
			cfg.SeasonStart = "yesterday"
			_, err := service.OptionsFromConfig(cfg)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
