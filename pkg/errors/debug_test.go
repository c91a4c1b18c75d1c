package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNilError(t *testing.T) {
	d := Dump(nil)
	if d.TopMessage != "" || d.Code != "" || d.Chain != nil || d.PGCode != "" {
		t.Fatalf("expected zero dump, got %+v", d)
	}
}

func TestDumpSurfacesPgxFieldsThroughWrapping(t *testing.T) {
	driverErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		TableName:      "users",
		Detail:         "Key (email)=(a@b.c) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("db: create user: %w", driverErr), "register user")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "users_email_key" || d.PGTable != "users" {
		t.Fatalf("driver fields not carried: %+v", d)
	}
	// one chain entry per wrap layer plus the driver error itself
	if len(d.Chain) < 3 {
		t.Fatalf("expected the full unwrap chain, got %v", d.Chain)
	}
}

func TestDumpSurfacesPqFields(t *testing.T) {
	err := fmt.Errorf("migrate: %w", &pq.Error{
		Code:       "42P01",
		Table:      "pages",
		Message:    "relation does not exist",
		Constraint: "",
	})

	d := Dump(err)
	if d.PGCode != "42P01" || d.PGTable != "pages" || d.PGMessage != "relation does not exist" {
		t.Fatalf("pq fields not carried: %+v", d)
	}
	if d.Code != "" {
		t.Fatalf("uncoded error should leave the code empty, got %s", d.Code)
	}
}
