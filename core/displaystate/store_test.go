package displaystate

import (
	"context"
	"testing"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, ok, _ := s.Get(ctx, "leaf"); ok {
		t.Fatal("expected empty store")
	}
	if err := s.Set(ctx, State{VehicleID: "leaf", Seq: 2}); err != nil {
		t.Fatal(err)
	}
	st, ok, err := s.Get(ctx, "leaf")
	if err != nil || !ok || st.Seq != 2 {
		t.Fatalf("unexpected get %+v %v %v", st, ok, err)
	}
}

func TestMemoryStoreIgnoresOlderSeq(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, State{VehicleID: "leaf", Seq: 5})
	_ = s.Set(ctx, State{VehicleID: "leaf", Seq: 3})
	st, _, _ := s.Get(ctx, "leaf")
	if st.Seq != 5 {
		t.Fatalf("expected seq 5, got %d", st.Seq)
	}
	// replay states carry no sequence and always win
	_ = s.Set(ctx, State{VehicleID: "leaf", Seq: 0})
	st, _, _ = s.Get(ctx, "leaf")
	if st.Seq != 0 {
		t.Fatalf("expected seq 0, got %d", st.Seq)
	}
}

func TestMemoryStoreListSorted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_ = s.Set(ctx, State{VehicleID: id})
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].VehicleID != "a" || list[2].VehicleID != "c" {
		t.Fatalf("unexpected order %+v", list)
	}
}
