package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/okian/fantaledger/internal/adapters/storage"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

func i64(v int64) *int64 { return &v }

func report() *model.Report {
	return &model.Report{
		RunID: uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001"),
		Sales: []model.SaleRecord{
			{PlayerID: 1, Seller: model.MarketMember, Buyer: "Alice", Amount: 5_000_000, Timestamp: 1_500, Date: "01-01-1970 00:25:00"},
			{PlayerID: 42, Seller: "Alice", Buyer: "Bob", Amount: 6_000_000, Timestamp: 1_600, Date: "01-01-1970 00:26:40"},
		},
		Rounds:  []model.RoundResult{{Round: "J1", Member: "Alice", Points: 10, Bonus: 2}},
		Balance: []model.BalanceRow{{Member: "Alice", Points: 10, Balance: 21.000002}},
		Players: []model.PlayerRecord{
			{ID: 1, Name: "Nine", Position: model.Forward, Price: 8_000_000, Points: 30, Played: 6, Fitness: []*int64{i64(4), nil, i64(-1)}},
		},
	}
}

func readCSV(data []byte) [][]string {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	So(err, ShouldBeNil)
	return rows
}

func TestEncodeCSV(t *testing.T) {
	Convey("Given a report", t, func() {
		r := report()
		var buf bytes.Buffer

		Convey("When the sales table is encoded", func() {
			So(export.Encode(&buf, export.CSV, export.Sales, r), ShouldBeNil)
			rows := readCSV(buf.Bytes())

			Convey("Then player names should come from the roster", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0], ShouldResemble, []string{"player_id", "player_name", "seller", "buyer", "amount", "timestamp", "date"})
				So(rows[1], ShouldResemble, []string{"1", "Nine", "market", "Alice", "5000000", "1500", "01-01-1970 00:25:00"})
				So(rows[2][1], ShouldEqual, "Missing")
			})
		})

		Convey("When the balance table is encoded", func() {
			So(export.Encode(&buf, export.CSV, export.Balance, r), ShouldBeNil)
			rows := readCSV(buf.Bytes())
			So(rows[1], ShouldResemble, []string{"Alice", "10", "21.000002"})
		})

		Convey("When the players table is encoded", func() {
			So(export.Encode(&buf, export.CSV, export.Players, r), ShouldBeNil)
			rows := readCSV(buf.Bytes())
			So(rows[1][2], ShouldEqual, "forward")
			So(rows[1][7], ShouldEqual, "4 - -1")
		})

		Convey("When an unknown table or format is requested", func() {
			err := export.Encode(&buf, export.CSV, export.Table("links"), r)
			So(errors.Is(err, export.ErrUnknownTable), ShouldBeTrue)
			So(errors.Is(err, export.ErrEncode), ShouldBeTrue)
			So(errors.Is(export.Encode(&buf, export.Format("xlsx"), export.Sales, r), export.ErrUnknownFormat), ShouldBeTrue)
			So(errors.Is(export.Encode(&buf, export.CSV, export.Sales, nil), export.ErrNilReport), ShouldBeTrue)
		})
	})
}

func TestEncodeYAML(t *testing.T) {
	Convey("Given a report encoded as YAML", t, func() {
		var buf bytes.Buffer
		So(export.Encode(&buf, export.YAML, export.Rounds, report()), ShouldBeNil)

		Convey("Then it should decode back into rows", func() {
			var rows []model.RoundResult
			So(yaml.Unmarshal(buf.Bytes(), &rows), ShouldBeNil)
			So(rows, ShouldResemble, []model.RoundResult{{Round: "J1", Member: "Alice", Points: 10, Bonus: 2}})
		})

		Convey("Then an empty table should be an empty list", func() {
			buf.Reset()
			So(export.Encode(&buf, export.YAML, export.Balance, &model.Report{}), ShouldBeNil)
			So(buf.String(), ShouldEqual, "[]\n")
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given format and table names", t, func() {
		f, err := export.ParseFormat("YML")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, export.YAML)
		So(f.ContentType(), ShouldEqual, "application/yaml")
		_, err = export.ParseFormat("xlsx")
		So(errors.Is(err, export.ErrUnknownFormat), ShouldBeTrue)

		tbl, err := export.ParseTable(" Sales ")
		So(err, ShouldBeNil)
		So(tbl, ShouldEqual, export.Sales)
		_, err = export.ParseTable("nope")
		So(errors.Is(err, export.ErrUnknownTable), ShouldBeTrue)
	})
}

type memUploader struct {
	objects map[string][]byte
	err     error
	// failAfter makes uploads fail once this many objects are stored.
	failAfter int
	deleted   []string
}

func (m *memUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.failAfter > 0 && len(m.objects) >= m.failAfter {
		return nil, storage.ErrUpload
	}
	data, _ := io.ReadAll(r)
	m.objects[key] = data
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (m *memUploader) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestExporter(t *testing.T) {
	Convey("Given an exporter with an uploader", t, func() {
		up := &memUploader{objects: map[string][]byte{}}
		e := export.New(export.WithFormat(export.YAML), export.WithPrefix("ledger"), export.WithUploader(up))
		r := report()
		ctx := context.Background()

		Convey("When a report is exported", func() {
			artifacts, err := e.Export(ctx, r)

			Convey("Then every table should be uploaded under the run", func() {
				So(err, ShouldBeNil)
				So(artifacts, ShouldHaveLength, len(export.Tables))
				key := "ledger/" + r.RunID.String() + "/sales.yaml"
				So(artifacts[0].Key, ShouldEqual, key)
				So(artifacts[0].Location, ShouldEqual, "https://cdn.example.com/"+key)
				So(up.objects, ShouldContainKey, key)
				So(string(up.objects[key]), ShouldContainSubstring, "player_name: Nine")
			})
		})

		Convey("When the upload fails", func() {
			up.err = errors.New("quota")
			err := e.Hook(ctx, r)
			So(errors.Is(err, up.err), ShouldBeTrue)
			So(up.deleted, ShouldBeEmpty)
		})

		Convey("When a later table fails to upload", func() {
			up.failAfter = 2
			artifacts, err := e.Export(ctx, r)

			Convey("Then the tables already stored should be removed", func() {
				So(errors.Is(err, storage.ErrUpload), ShouldBeTrue)
				So(artifacts, ShouldBeNil)
				So(up.objects, ShouldBeEmpty)
				So(up.deleted, ShouldResemble, []string{
					"ledger/" + r.RunID.String() + "/sales.yaml",
					"ledger/" + r.RunID.String() + "/rounds.yaml",
				})
			})
		})
	})

	Convey("Given an exporter without an uploader", t, func() {
		e := export.New(export.WithTables(export.Balance))
		artifacts, err := e.Export(context.Background(), report())

		Convey("Then tables should only be rendered", func() {
			So(err, ShouldBeNil)
			So(artifacts, ShouldHaveLength, 1)
			So(artifacts[0].Location, ShouldBeEmpty)
			So(string(artifacts[0].Data), ShouldStartWith, "member,points,balance\n")
		})
	})
}
