package contest

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const (
	aliceSubsocial = "3sqiJgebhvHQqGbVUQJ5XbnV2KCmTrUXjUwgapcAKJwVyU7u"
	aliceGeneric   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
)

const export = "Points,Twitter,Account\r\n" +
	"80,@alice," + "https://app.subsocial.network/accounts/" + aliceSubsocial + "\r\n" +
	"64,@bob," + aliceGeneric + "\r\n" +
	"65,carol," + aliceGeneric + "\r\n" +
	"90,@dave,not-an-account\r\n" +
	"n/a,@erin," + aliceGeneric + "\r\n"

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(export))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if rows[0].Line != 2 || rows[0].Points != "80" || rows[0].Handle != "@alice" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[4].Line != 6 {
		t.Fatalf("last row line = %d, want 6", rows[4].Line)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("Points,Twitter,Account\n")); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("header only: error = %v, want ErrNoCandidates", err)
	}
	if _, err := ReadCSV(strings.NewReader("h1,h2,h3\n70,@x\n")); err == nil {
		t.Fatal("expected short row error")
	}
}

func TestFilter(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(export))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	eligible, rejected := Filter(rows, DefaultRules())

	want := []Candidate{
		{Points: 80, Handle: "alice", AccountID: aliceSubsocial},
		{Points: 65, Handle: "carol", AccountID: aliceGeneric},
	}
	if len(eligible) != len(want) {
		t.Fatalf("got %d eligible, want %d: %+v", len(eligible), len(want), eligible)
	}
	for i := range want {
		if eligible[i] != want[i] {
			t.Fatalf("eligible[%d] = %+v, want %+v", i, eligible[i], want[i])
		}
	}

	wantLines := []int{3, 5, 6}
	if len(rejected) != len(wantLines) {
		t.Fatalf("got %d rejections, want %d: %+v", len(rejected), len(wantLines), rejected)
	}
	for i, line := range wantLines {
		if rejected[i].Line != line || rejected[i].Reason == "" {
			t.Fatalf("rejected[%d] = %+v, want line %d", i, rejected[i], line)
		}
	}
}

func TestFilter_CustomThreshold(t *testing.T) {
	rows, _ := ReadCSV(strings.NewReader(export))
	eligible, _ := Filter(rows, Rules{MinPoints: 0})
	if len(eligible) != 3 {
		t.Fatalf("got %d eligible, want 3", len(eligible))
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		cell string
		want int
		ok   bool
	}{
		{cell: "70", want: 70, ok: true},
		{cell: " 80 ", want: 80, ok: true},
		{cell: "70.0", want: 70, ok: true},
		{cell: "70pts", want: 70, ok: true},
		{cell: "+66", want: 66, ok: true},
		{cell: "-5", want: -5, ok: true},
		{cell: "0x41", want: 65, ok: true},
		{cell: "n/a", ok: false},
		{cell: "", ok: false},
		{cell: "-", ok: false},
		{cell: ".5", ok: false},
		{cell: "99999999999999999999", ok: false},
	}
	for _, tt := range tests {
		got, err := parsePoints(tt.cell)
		if tt.ok != (err == nil) {
			t.Fatalf("parsePoints(%q) error = %v, want ok %v", tt.cell, err, tt.ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parsePoints(%q) = %d, want %d", tt.cell, got, tt.want)
		}
	}
}

func TestFilter_LeadingIntegerPoints(t *testing.T) {
	rows := []Row{
		{Line: 2, Points: "70.0", Handle: "@a", Account: aliceGeneric},
		{Line: 3, Points: "70pts", Handle: "@b", Account: aliceGeneric},
		{Line: 4, Points: "-5", Handle: "@c", Account: aliceGeneric},
		{Line: 5, Points: "pts70", Handle: "@d", Account: aliceGeneric},
	}
	eligible, rejected := Filter(rows, DefaultRules())
	if len(eligible) != 2 || eligible[0].Points != 70 || eligible[1].Points != 70 {
		t.Fatalf("eligible = %+v", eligible)
	}
	if len(rejected) != 2 || rejected[0].Line != 4 || rejected[1].Line != 5 {
		t.Fatalf("rejected = %+v", rejected)
	}
	if !strings.Contains(rejected[1].Reason, "invalid points") {
		t.Fatalf("rejected[1].Reason = %q", rejected[1].Reason)
	}
}

func TestDigest(t *testing.T) {
	a := []Candidate{
		{Points: 80, Handle: "alice", AccountID: aliceSubsocial},
		{Points: 65, Handle: "carol", AccountID: aliceGeneric},
	}
	b := []Candidate{a[1], a[0]}

	if Digest(a) != Digest(append([]Candidate(nil), a...)) {
		t.Fatal("digest is not stable")
	}
	if Digest(a) == Digest(b) {
		t.Fatal("digest ignores order")
	}
	if len(Digest(nil)) != 64 {
		t.Fatalf("digest length = %d, want 64", len(Digest(nil)))
	}

	// Field boundaries are part of the encoding.
	c := []Candidate{{Points: 1, Handle: "ab", AccountID: "c"}}
	d := []Candidate{{Points: 1, Handle: "a", AccountID: "bc"}}
	if Digest(c) == Digest(d) {
		t.Fatal("digest collides across field boundaries")
	}
}

func TestLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Points", "Twitter", "Account"},
		{80, "@alice", aliceSubsocial},
		{},
		{70, "@carol", aliceGeneric},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = f.Close()

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(got), got)
	}
	if got[1].Line != 4 || got[1].Points != "70" {
		t.Fatalf("unexpected row %+v", got[1])
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	if _, err := Load("results.txt"); err == nil {
		t.Fatal("expected unsupported type error")
	}
}
