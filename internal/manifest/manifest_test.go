package manifest

import (
	"testing"

	"github.com/gitconddb/gitconddb/internal/iov"
)

const scenarioA = "0 v0\n100 v1\n200 v2\n"

func TestPickEntryScenarioA(t *testing.T) {
	cases := []struct {
		t        iov.TimePoint
		bounds   iov.IOV
		wantKey  string
		wantIOV  iov.IOV
		wantFail bool
	}{
		{0, iov.Full(), "v0", iov.IOV{0, 100}, false},
		{150, iov.Full(), "v1", iov.IOV{100, 200}, false},
		{250, iov.Full(), "v2", iov.IOV{200, iov.MaxTime}, false},
		{250, iov.IOV{0, 200}, "", iov.Invalid(), false},
	}
	for _, c := range cases {
		key, got, err := PickEntry(scenarioA, c.t, c.bounds, true)
		if err != nil {
			t.Fatalf("PickEntry(t=%d): unexpected error: %v", c.t, err)
		}
		if key != c.wantKey || got != c.wantIOV {
			t.Errorf("PickEntry(t=%d) = (%q, %+v), want (%q, %+v)", c.t, key, got, c.wantKey, c.wantIOV)
		}
	}
}

const scenarioB = "0 v0\n100 v1\n150 v1\n200 v2\n250 v2\n"

func TestPickEntryReduction(t *testing.T) {
	key, got, err := PickEntry(scenarioB, 160, iov.Full(), true)
	if err != nil {
		t.Fatal(err)
	}
	if key != "v1" || got != (iov.IOV{100, 200}) {
		t.Errorf("reduced t=160: got (%q, %+v)", key, got)
	}

	key, got, err = PickEntry(scenarioB, 260, iov.Full(), true)
	if err != nil {
		t.Fatal(err)
	}
	if key != "v2" || got != (iov.IOV{200, iov.MaxTime}) {
		t.Errorf("reduced t=260: got (%q, %+v)", key, got)
	}
}

func TestPickEntryNoReduction(t *testing.T) {
	key, got, err := PickEntry(scenarioB, 160, iov.Full(), false)
	if err != nil {
		t.Fatal(err)
	}
	if key != "v1" || got != (iov.IOV{150, 200}) {
		t.Errorf("unreduced t=160: got (%q, %+v)", key, got)
	}

	key, got, err = PickEntry(scenarioB, 260, iov.Full(), false)
	if err != nil {
		t.Fatal(err)
	}
	if key != "v2" || got != (iov.IOV{250, iov.MaxTime}) {
		t.Errorf("unreduced t=260: got (%q, %+v)", key, got)
	}
}

func TestPickEntryBeforeFirstRecord(t *testing.T) {
	// t is inside bounds but smaller than every record's since.
	key, got, err := PickEntry("100 v0\n200 v1\n", 50, iov.Full(), true)
	if err != nil {
		t.Fatal(err)
	}
	if key != "" || got.Valid() {
		t.Errorf("t before first record: got (%q, %+v), want invalid", key, got)
	}
}

func TestPickEntryOutOfBoundsFast(t *testing.T) {
	key, got, err := PickEntry(scenarioA, 500, iov.IOV{0, 300}, true)
	if err != nil {
		t.Fatal(err)
	}
	if key != "" || got.Valid() {
		t.Errorf("t outside bounds: got (%q, %+v), want invalid", key, got)
	}
}

func TestPickEntryMalformedLine(t *testing.T) {
	_, _, err := PickEntry("not-a-number v0\n", 0, iov.Full(), true)
	if err == nil {
		t.Fatal("expected a parse error for a malformed since field")
	}
}

func TestParseAll(t *testing.T) {
	entries, err := ParseAll(scenarioA)
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{IOV: iov.IOV{0, 100}, Child: "v0"},
		{IOV: iov.IOV{100, 200}, Child: "v1"},
		{IOV: iov.IOV{200, iov.MaxTime}, Child: "v2"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseAllEntriesContainOwnSince(t *testing.T) {
	entries, err := ParseAll(scenarioB)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IOV.Valid() && !e.IOV.Contains(e.IOV.Since) {
			t.Errorf("entry %+v does not contain its own Since", e)
		}
	}
}

func TestEmptyManifestRejected(t *testing.T) {
	if _, _, err := PickEntry("", 0, iov.Full(), true); err == nil {
		t.Error("empty manifest must be rejected")
	}
	if _, err := ParseAll(""); err == nil {
		t.Error("empty manifest must be rejected")
	}
}
