package gitconddb

import (
	"context"
	"testing"

	"github.com/gitconddb/gitconddb/internal/resolve"
	"github.com/gitconddb/gitconddb/internal/store"
)

func TestConnect_JSONBackend_Get(t *testing.T) {
	doc := `{"Cond":{"IOVs":"0 v0\n100 v1\n","v0":"data 0","v1":"data 1"}}`
	db, err := Connect("json:" + doc)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ctx := context.Background()
	payload, result, err := db.Get(ctx, "", "Cond", 50, Full())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if payload != "data 0" || result.Since != 0 || result.Until != 100 {
		t.Fatalf("Get = (%q, %+v)", payload, result)
	}
}

func TestConnect_JSONBackend_Boundaries(t *testing.T) {
	doc := `{"Cond":{"IOVs":"0 v0\n100 v1\n200 v2\n","v0":"a","v1":"b","v2":"c"}}`
	db, err := Connect("json:" + doc)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	got, err := db.IOVBoundaries(context.Background(), "", "Cond", Full())
	if err != nil {
		t.Fatalf("IOVBoundaries: %v", err)
	}
	want := []TimePoint{0, 100, 200}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestConnect_DefaultsToGitScheme(t *testing.T) {
	db, err := Connect("/srv/conddb")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if db.Connected() {
		t.Fatal("expected lazily unconnected git backend")
	}
}

func TestCondDB_IOVReductionToggle(t *testing.T) {
	doc := `{"Cond":{"IOVs":"0 v0\n","v0":"data"}}`
	db, err := Connect("json:"+doc, WithIOVReduction(false))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if db.IOVReduction() {
		t.Fatal("expected reduction disabled via option")
	}
	db.SetIOVReduction(true)
	if !db.IOVReduction() {
		t.Fatal("expected reduction enabled after SetIOVReduction")
	}
}

func TestCondDB_ScopedConnectionPropagatesErrorAndDisconnects(t *testing.T) {
	db, err := Connect("/srv/conddb") // unresolvable git path; never actually dialed
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sentinel := context.Canceled
	err = db.ScopedConnection(context.Background(), func(*CondDB) error {
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected ScopedConnection to propagate fn's error, got %v", err)
	}
	if db.Connected() {
		t.Fatal("expected ScopedConnection to leave the backend disconnected")
	}
}

func TestCondDB_SetDirConverterReturnsPrevious(t *testing.T) {
	db, err := Connect("/srv/conddb")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	custom := func(store.Directory) (string, error) { return "custom", nil }
	prev := db.SetDirConverter(custom)
	if prev == nil {
		t.Fatal("expected the default converter back, got nil")
	}
	got, err := prev(store.Directory{})
	if err != nil {
		t.Fatalf("previous converter: %v", err)
	}
	if got == "custom" {
		t.Fatal("expected the previous converter to be the default, not the one just installed")
	}

	restored := db.SetDirConverter(resolve.DefaultDirConverter)
	if got, _ := restored(store.Directory{}); got != "custom" {
		t.Fatalf("expected the just-installed custom converter back, got %q", got)
	}
}
