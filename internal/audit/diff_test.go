package audit

import (
	"reflect"
	"testing"
)

func TestDiff_IdenticalStatesYieldNoChanges(t *testing.T) {
	state := map[string]any{"name": "Coffee", "price": int64(450)}
	if got := Diff(state, state, []string{"name", "price"}); got != nil {
		t.Fatalf("expected no changes, got %v", got)
	}
}

func TestDiff_SymmetricWithFromToSwapped(t *testing.T) {
	a := map[string]any{"name": "Coffee", "price": int64(450), "available": true}
	b := map[string]any{"name": "Espresso", "price": int64(450), "available": false}
	fields := []string{"name", "price", "available"}

	ab := Diff(a, b, fields)
	ba := Diff(b, a, fields)

	if len(ab) != 2 || len(ba) != 2 {
		t.Fatalf("expected 2 changes each way, got %d and %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].Field != ba[i].Field {
			t.Fatalf("field order must match: %q vs %q", ab[i].Field, ba[i].Field)
		}
		if !reflect.DeepEqual(ab[i].From, ba[i].To) || !reflect.DeepEqual(ab[i].To, ba[i].From) {
			t.Fatalf("expected from/to swapped at %q: %+v vs %+v", ab[i].Field, ab[i], ba[i])
		}
	}
}

func TestDiff_TypeChangeIsAChange(t *testing.T) {
	a := map[string]any{"price": int(450)}
	b := map[string]any{"price": int64(450)}
	got := Diff(a, b, []string{"price"})
	if len(got) != 1 {
		t.Fatalf("expected type-strict inequality to register, got %v", got)
	}
}

func TestDiff_RespectsAllowlist(t *testing.T) {
	a := map[string]any{"name": "Coffee", "internal_cost": int64(120)}
	b := map[string]any{"name": "Espresso", "internal_cost": int64(200)}

	got := Diff(a, b, []string{"name"})
	if len(got) != 1 || got[0].Field != "name" {
		t.Fatalf("expected only allowlisted fields, got %v", got)
	}
}

func TestDiff_PreservesAllowlistOrder(t *testing.T) {
	a := map[string]any{"x": 1, "y": 1, "z": 1}
	b := map[string]any{"x": 2, "y": 2, "z": 2}
	got := Diff(a, b, []string{"z", "x", "y"})
	want := []string{"z", "x", "y"}
	for i, c := range got {
		if c.Field != want[i] {
			t.Fatalf("expected allowlist order %v, got %v at %d", want, c.Field, i)
		}
	}
}

func TestDiff_FieldAddedAndRemoved(t *testing.T) {
	a := map[string]any{"name": "Coffee"}
	b := map[string]any{"name": "Coffee", "note": "hot"}

	got := Diff(a, b, []string{"name", "note"})
	if len(got) != 1 || got[0].Field != "note" || got[0].From != nil || got[0].To != "hot" {
		t.Fatalf("expected added field recorded with nil From, got %v", got)
	}
}
