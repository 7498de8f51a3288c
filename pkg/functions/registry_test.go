package functions

import (
	"context"
	"testing"
)

func echo(_ context.Context, args ...any) (any, error) {
	return len(args), nil
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(
		CustomFunctionDef{Name: "Greet", MinArgs: 1, MaxArgs: 1, Fn: echo},
		CustomFunctionDef{Name: "Concat", MinArgs: 1, MaxArgs: -1, Fn: echo},
	)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := r.Lookup("GREET")
	if !ok || d.Name != "Greet" {
		t.Fatalf("Lookup is case insensitive: %v, %v", d, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("unexpected hit")
	}

	if err := r.Register(CustomFunctionDef{Name: "greet", Fn: echo}); err == nil {
		t.Error("expected a duplicate error")
	}
	if err := r.Register(CustomFunctionDef{Name: "NoFn"}); err == nil {
		t.Error("expected an error without an implementation")
	}
	if err := r.Register(CustomFunctionDef{Fn: echo}); err == nil {
		t.Error("expected an error without a name")
	}
}

func TestRegistry_DuplicateAtConstruction(t *testing.T) {
	_, err := NewRegistry(
		CustomFunctionDef{Name: "F", Fn: echo},
		CustomFunctionDef{Name: "f", Fn: echo},
	)
	if err == nil {
		t.Error("expected a duplicate error")
	}
}

func TestNilRegistryLookup(t *testing.T) {
	var r *Registry
	if _, ok := r.Lookup("x"); ok {
		t.Error("nil registry must not resolve names")
	}
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		min, max, n int
		want        bool
	}{
		{1, 1, 1, true},
		{1, 1, 2, false},
		{2, 3, 1, false},
		{0, -1, 9, true},
		{0, 0, 0, true},
	}
	for _, tt := range tests {
		d := CustomFunctionDef{MinArgs: tt.min, MaxArgs: tt.max}
		if got := d.Accepts(tt.n); got != tt.want {
			t.Errorf("Accepts(%d) with [%d,%d] = %v", tt.n, tt.min, tt.max, got)
		}
	}
}
