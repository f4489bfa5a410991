package corpus

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-fuzzgen/errors"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHash(t *testing.T) {
	a := Hash([]byte("\x00asm\x01\x00\x00\x00"))
	if len(a) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(a))
	}
	if a != Hash([]byte("\x00asm\x01\x00\x00\x00")) {
		t.Error("Hash is not deterministic")
	}
	if a == Hash([]byte("\x00asm\x01\x00\x00\x01")) {
		t.Error("different inputs share a hash")
	}
}

func TestStore_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	created := time.Unix(1700000000, 42)
	in := Entry{
		Hash:      Hash([]byte("one")),
		Seed:      7,
		Functions: 3,
		Path:      "out/module_0",
		Valid:     true,
		Outcome:   "start: returned [1]",
		CreatedAt: created,
	}
	got, isNew, err := s.Record(ctx, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !isNew {
		t.Error("first Record reported a duplicate")
	}
	if got.ID == "" {
		t.Error("Record did not assign an ID")
	}

	stored, err := s.Get(ctx, in.Hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(got, stored); diff != "" {
		t.Errorf("Get mismatch (-recorded +stored):\n%s", diff)
	}
}

func TestStore_RecordDuplicate(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	hash := Hash([]byte("same"))

	first, _, err := s.Record(ctx, Entry{Hash: hash, Seed: 1, Functions: 2, Path: "a"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	again, isNew, err := s.Record(ctx, Entry{Hash: hash, Seed: 2, Functions: 2, Path: "b"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if isNew {
		t.Error("duplicate hash recorded as new")
	}
	if again.ID != first.ID || again.Seed != 1 {
		t.Errorf("duplicate returned %+v, want the first entry", again)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestStore_HasAndMissing(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	ok, err := s.Has(ctx, "nope")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("Has found a missing hash")
	}

	_, err = s.Get(ctx, "nope")
	if !stderrors.Is(err, errors.New(errors.PhaseStore, errors.KindNotFound).Build()) {
		t.Errorf("Get(missing) error = %v, want store not_found", err)
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		_, _, err := s.Record(ctx, Entry{
			Hash:      Hash([]byte{byte(i)}),
			Seed:      int64(i),
			Path:      "p",
			CreatedAt: base.Add(time.Duration(4-i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var seeds []int64
	for _, e := range all {
		seeds = append(seeds, e.Seed)
	}
	if diff := cmp.Diff([]int64{4, 3, 2, 1, 0}, seeds); diff != "" {
		t.Errorf("List order mismatch (-want +got):\n%s", diff)
	}

	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(two) != 2 {
		t.Errorf("List(2) returned %d entries", len(two))
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := s.Record(ctx, Entry{Hash: "h", Path: "p"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if ok, err := s.Has(ctx, "h"); err != nil || !ok {
		t.Errorf("Has after reopen = %v, %v", ok, err)
	}
}
