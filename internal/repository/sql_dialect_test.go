package repository

import (
	"testing"
)

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"name", " ", "code"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "name LIKE ? OR code LIKE ?" {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", []string{"name"})
	if condition != "name ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %s", condition)
	}
}

func TestSupportsRowLockByDialect(t *testing.T) {
	cases := map[string]bool{
		"postgres": true,
		"Postgres": true,
		"mysql":    true,
		"sqlite":   false,
		"":         false,
	}
	for dialect, want := range cases {
		if got := supportsRowLockByDialect(dialect); got != want {
			t.Fatalf("dialect %q want %v got %v", dialect, want, got)
		}
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
