package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/fantaledger/internal/adapters/biwenger"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/domain/feed"
	"github.com/okian/fantaledger/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSource serves a fixed board and roster.
type fakeSource struct {
	mu         sync.Mutex
	pages      [][]model.Event
	players    []model.PlayerRecord
	offers     []model.MarketOffer
	loginErr   error
	fetchErr   error
	playersErr error
	offsets    []int
}

func (f *fakeSource) Login(_ context.Context, email, _ string) (biwenger.Session, error) {
	if f.loginErr != nil {
		return biwenger.Session{}, f.loginErr
	}
	return biwenger.Session{Token: "tok-" + email}, nil
}

func (f *fakeSource) FetchFunc(_ biwenger.Session) feed.FetchFunc {
	return func(_ context.Context, offset, limit int) ([]model.Event, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.offsets = append(f.offsets, offset)
		if f.fetchErr != nil {
			return nil, f.fetchErr
		}
		idx := offset / limit
		if idx >= len(f.pages) {
			return nil, nil
		}
		return f.pages[idx], nil
	}
}

func (f *fakeSource) Players(context.Context) ([]model.PlayerRecord, error) {
	if f.playersErr != nil {
		return nil, f.playersErr
	}
	return f.players, nil
}

func (f *fakeSource) Market(context.Context, biwenger.Session) ([]model.MarketOffer, error) {
	return f.offers, nil
}

type memRecorder struct {
	reports []*model.Report
	err     error
}

func (m *memRecorder) RecordReport(_ context.Context, r *model.Report) error {
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, r)
	return nil
}

func i64(v int64) *int64 { return &v }

func newFake() *fakeSource {
	return &fakeSource{
		pages: [][]model.Event{
			{
				{Type: model.EventMarket, Timestamp: 2_000, Payload: model.MarketPayload{Sales: []model.MarketSale{
					{Player: 1, To: &model.Member{Name: "Alice"}, Amount: 5_000_000},
				}}},
				{Type: model.EventTransfer, Timestamp: 1_900, Payload: model.TransferPayload{Transfers: []model.Transfer{
					{Player: 1, From: &model.Member{Name: "Alice"}, To: &model.Member{Name: "Bob"}, Amount: 6_000_000},
				}}},
			},
			{
				{Type: model.EventRoundFinished, Timestamp: 1_800, Payload: model.RoundFinishedPayload{
					Round: &model.Round{Name: "J1"},
					Results: []model.RoundEntry{
						{User: &model.Member{Name: "Alice"}, Points: i64(10), Bonus: i64(2)},
						{User: &model.Member{Name: "Bob"}, Points: i64(8)},
					},
				}},
				{Type: model.EventMarket, Timestamp: 900, Payload: model.MarketPayload{Sales: []model.MarketSale{
					{Player: 9, To: &model.Member{Name: "Old"}, Amount: 1},
				}}},
			},
		},
		players: []model.PlayerRecord{
			{ID: 1, Name: "Nine", Position: model.Forward, Price: 8_000_000, Points: 30, Played: 6, PointsLastSeason: 140},
			{ID: 2, Name: "Wall", Position: model.Keeper, Price: 4_000_000, Points: 20, Played: 5, PointsLastSeason: 90},
			{ID: 3, Name: "Wing", Position: model.Forward, Price: 6_000_000, Points: 0, Played: 0, PointsLastSeason: 160},
		},
	}
}

func newService(src service.Source, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithSource(src),
		service.WithCredentials("a@b.c", "pw"),
		service.WithCutoff(time.Unix(1_000, 0)),
		service.WithLocation(time.UTC),
		service.WithPageSize(2),
		service.WithInitialBudget(20),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Report(t *testing.T) {
	Convey("Given a service over a two page board", t, func() {
		src := newFake()
		svc := newService(src)
		ctx := context.Background()

		Convey("When a report is built", func() {
			report, err := svc.Report(ctx)

			Convey("Then the feed should stop at the cutoff", func() {
				So(err, ShouldBeNil)
				So(report.Sales, ShouldHaveLength, 2)
				So(report.Rounds, ShouldHaveLength, 2)
				So(report.Pages, ShouldEqual, 2)
				So(src.offsets, ShouldResemble, []int{0, 2})
			})

			Convey("Then balances should be derived from the tables", func() {
				So(report.Balance, ShouldHaveLength, 2)
				So(report.Balance[0].Member, ShouldEqual, "Alice")
				So(report.Balance[0].Balance, ShouldAlmostEqual, 21.000002, 1e-9)
				So(report.Balance[1].Member, ShouldEqual, "Bob")
				So(report.Balance[1].Points, ShouldEqual, int64(0))
				So(report.Balance[1].Balance, ShouldAlmostEqual, 14.0, 1e-9)
				So(report.Links, ShouldResemble, []model.Link{{Seller: "Alice", Buyer: "Bob", Count: 1}})
				So(report.Signings, ShouldHaveLength, 1)
				So(report.Players, ShouldHaveLength, 3)
			})

			Convey("Then the run should be tagged and counted", func() {
				So(report.RunID.String(), ShouldNotBeEmpty)
				stats := svc.GetStats()
				So(stats["runs"], ShouldEqual, int64(1))
				So(stats["failures"], ShouldEqual, int64(0))
				So(stats["lastRunID"], ShouldEqual, report.RunID.String())
			})
		})

		Convey("When the feed fetch fails", func() {
			boom := errors.New("status 500")
			src.fetchErr = boom
			report, err := svc.Report(ctx)

			Convey("Then an upstream error should surface with no report", func() {
				So(report, ShouldBeNil)
				So(errors.Is(err, service.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, feed.ErrFetch), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(svc.GetStats()["failures"], ShouldEqual, int64(1))
			})
		})

		Convey("When login is rejected", func() {
			src.loginErr = biwenger.ErrLogin
			_, err := svc.Report(ctx)

			Convey("Then no page should be fetched", func() {
				So(errors.Is(err, biwenger.ErrLogin), ShouldBeTrue)
				So(src.offsets, ShouldBeEmpty)
			})
		})

		Convey("When the roster fetch fails", func() {
			src.playersErr = biwenger.ErrStatus
			_, err := svc.Report(ctx)

			Convey("Then the whole run should fail", func() {
				So(errors.Is(err, service.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, biwenger.ErrStatus), ShouldBeTrue)
			})
		})

		Convey("When trading-only members are included", func() {
			src.pages[0] = append(src.pages[0], model.Event{Type: model.EventMarket, Timestamp: 1_850, Payload: model.MarketPayload{
				Sales: []model.MarketSale{{Player: 4, To: &model.Member{Name: "Carol"}, Amount: 1_000_000}},
			}})
			wide := newService(src, service.WithPageSize(3), service.WithTradingOnlyMembers(true))
			report, err := wide.Report(ctx)

			Convey("Then Carol should get a balance row", func() {
				So(err, ShouldBeNil)
				So(report.Balance, ShouldHaveLength, 3)
				So(report.Balance[2].Member, ShouldEqual, "Carol")
				So(report.Balance[2].Balance, ShouldAlmostEqual, 19.0, 1e-9)
			})
		})
	})

	Convey("Given a service without a source", t, func() {
		svc := service.New()

		Convey("Then runs and start should be refused", func() {
			_, err := svc.Report(context.Background())
			So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
			So(errors.Is(svc.Start(context.Background()), service.ErrNoSource), ShouldBeTrue)
		})
	})
}

func TestService_RosterQueries(t *testing.T) {
	Convey("Given a service with a roster", t, func() {
		src := newFake()
		svc := newService(src)
		ctx := context.Background()

		Convey("When ranking forwards", func() {
			top, err := svc.TopLastSeason(ctx, model.Forward, 0, 10, 5)

			Convey("Then they should be sorted by last season points", func() {
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].Name, ShouldEqual, "Wing")
				So(top[1].Name, ShouldEqual, "Nine")
			})
		})

		Convey("When the query is invalid", func() {
			_, err := svc.TopLastSeason(ctx, model.Forward, 10, 0, 5)
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			_, err = svc.TopLastSeason(ctx, model.Forward, 0, 10, 0)
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When asking for performance", func() {
			rows, err := svc.Performance(ctx)

			Convey("Then idle players should be dropped", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].Name, ShouldEqual, "Nine")
			})
		})

		Convey("When reading the market", func() {
			src.offers = []model.MarketOffer{
				{PlayerID: 2, Price: 4_500_000, Seller: model.MarketMember},
				{PlayerID: 77, Price: 1, Seller: "Bob"},
			}
			offers, err := svc.Market(ctx)

			Convey("Then names should be filled from the roster", func() {
				So(err, ShouldBeNil)
				So(offers[0].Name, ShouldEqual, "Wall")
				So(offers[1].Name, ShouldEqual, "Missing")
			})
		})
	})
}

func TestService_Snapshot(t *testing.T) {
	Convey("Given a service with a recorder", t, func() {
		rec := &memRecorder{}
		svc := newService(newFake(), service.WithRecorder(rec))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a snapshot is taken", func() {
			report, err := svc.Snapshot(ctx)

			Convey("Then the report should be recorded", func() {
				So(err, ShouldBeNil)
				So(rec.reports, ShouldHaveLength, 1)
				So(rec.reports[0].RunID, ShouldEqual, report.RunID)
				So(svc.GetStats()["snapshots"], ShouldEqual, int64(1))
			})
		})

		Convey("When the recorder fails", func() {
			rec.err = errors.New("disk full")
			_, err := svc.Snapshot(ctx)

			Convey("Then the snapshot should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "disk full")
			})
		})
	})
}
