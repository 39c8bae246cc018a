package query

import (
	"errors"
	"strings"
	"testing"
)

func TestEnforce_AllowsSelect(t *testing.T) {
	stmt, limit, err := Enforce("SELECT * FROM patients", 0, 500)
	if err != nil {
		t.Fatal(err)
	}
	if stmt != "SELECT * FROM patients LIMIT 500" {
		t.Fatalf("unexpected statement %q", stmt)
	}
	if limit != 500 {
		t.Fatalf("expected default limit 500, got %d", limit)
	}
}

func TestEnforce_AllowsWith(t *testing.T) {
	_, _, err := Enforce("WITH t AS (SELECT 1) SELECT * FROM t", 10, 500)
	if err != nil {
		t.Fatal(err)
	}
}

func TestEnforce_CaseAndWhitespaceInsensitive(t *testing.T) {
	_, _, err := Enforce("  \n\tselect 1", 0, 500)
	if err != nil {
		t.Fatal(err)
	}
}

func TestEnforce_RejectsDelete(t *testing.T) {
	_, _, err := Enforce("DELETE FROM patients", 0, 500)
	var unsafeErr *UnsafeQueryError
	if !errors.As(err, &unsafeErr) {
		t.Fatalf("expected UnsafeQueryError, got %v", err)
	}
}

func TestEnforce_RejectsMutations(t *testing.T) {
	for _, stmt := range []string{
		"INSERT INTO patients VALUES (1)",
		"UPDATE patients SET age = 0",
		"DROP TABLE patients",
		"TRUNCATE patients",
		"COPY patients TO '/tmp/x'",
		"",
		"   ",
	} {
		if _, _, err := Enforce(stmt, 0, 500); err == nil {
			t.Fatalf("expected rejection of %q", stmt)
		}
	}
}

func TestEnforce_RejectsMultipleStatements(t *testing.T) {
	_, _, err := Enforce("SELECT 1; DELETE FROM patients", 0, 500)
	var unsafeErr *UnsafeQueryError
	if !errors.As(err, &unsafeErr) {
		t.Fatalf("expected UnsafeQueryError for stacked statements, got %v", err)
	}
}

func TestEnforce_ClampsLimit(t *testing.T) {
	cases := []struct {
		requested, fallback, want int
	}{
		{0, 500, 500},     // absent takes the tool default
		{10, 500, 10},     // in range
		{1, 500, 1},       // lower bound
		{2000, 500, 2000}, // upper bound
		{5000, 500, 2000}, // clamped down
		{-3, 500, 1},      // clamped up
		{0, 3000, 2000},   // even defaults are clamped
	}
	for _, c := range cases {
		_, limit, err := Enforce("SELECT 1", c.requested, c.fallback)
		if err != nil {
			t.Fatal(err)
		}
		if limit != c.want {
			t.Fatalf("requested=%d fallback=%d: expected %d, got %d", c.requested, c.fallback, c.want, limit)
		}
	}
}

func TestEnforce_AppendsSingleTrailingLimit(t *testing.T) {
	stmt, _, err := Enforce("SELECT name FROM patients", 25, 500)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(stmt, " LIMIT 25") {
		t.Fatalf("expected trailing LIMIT 25, got %q", stmt)
	}
}

// Caller SQL carrying its own LIMIT ends up with two LIMIT clauses. That is
// the documented sharp edge: the gate does not parse or merge.
func TestEnforce_DoesNotMergeExistingLimit(t *testing.T) {
	stmt, _, err := Enforce("SELECT name FROM patients LIMIT 5", 25, 500)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(stmt, "LIMIT") != 2 {
		t.Fatalf("expected the existing LIMIT to be left alone, got %q", stmt)
	}
}

func TestEnforce_LeavesStatementBodyUntouched(t *testing.T) {
	body := "SELECT gender, COUNT(*) FROM patients GROUP BY gender"
	stmt, _, err := Enforce(body, 100, 500)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stmt, body) {
		t.Fatalf("statement body was rewritten: %q", stmt)
	}
}
