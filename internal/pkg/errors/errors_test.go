package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestTaxonomyMatchesSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "validation", err: Invalid("score", "must be between 0 and 100"), sentinel: ErrInvalidArgument},
		{name: "not found", err: NewNotFoundError("lesson", "abc"), sentinel: ErrNotFound},
		{name: "store", err: WrapStore("upsert progress", errors.New("conn reset")), sentinel: ErrStore},
		{name: "wrapped store", err: fmt.Errorf("ledger: %w", WrapStore("get", errors.New("x"))), sentinel: ErrStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Fatalf("errors.Is(%v, %v) = false", tc.err, tc.sentinel)
			}
		})
	}
}

func TestWrapStore(t *testing.T) {
	if WrapStore("op", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
	inner := WrapStore("inner", errors.New("boom"))
	outer := WrapStore("outer", inner)
	var se *StoreError
	if !errors.As(outer, &se) || se.Op != "inner" {
		t.Fatalf("store error re-wrapped: %v", outer)
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := Invalid("item_kind", "must be one of lesson quiz assignment")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError")
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "item_kind" {
		t.Fatalf("unexpected fields: %+v", ve.Fields)
	}
}
