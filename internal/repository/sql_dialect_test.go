package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestBuildLikeConditionByDialectSQLite(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", "code", " ", "name")
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "code LIKE ? OR name LIKE ?"
	if condition != want {
		t.Fatalf("condition mismatch, want %s got %s", want, condition)
	}
}

func TestBuildLikeConditionByDialectPostgres(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", "code")
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	if condition != "code ILIKE ?" {
		t.Fatalf("condition mismatch, got %s", condition)
	}
}

func TestBuildLikeConditionNilDBFallsBackToSQLite(t *testing.T) {
	condition, _ := buildLikeCondition(nil, "order_no")
	if condition != "order_no LIKE ?" {
		t.Fatalf("nil db should use sqlite dialect, got %s", condition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: gorm.ErrDuplicatedKey, want: true},
		{err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{err: errors.New("constraint failed: UNIQUE constraint failed: coupons.code (2067)"), want: true},
		{err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_coupons_code" (SQLSTATE 23505)`), want: true},
		{err: errors.New("database is locked"), want: false},
	}
	for idx, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("case %d want %v got %v", idx, tc.want, got)
		}
	}
}
