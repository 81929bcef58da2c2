package store

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "event_products_event_product_key"}, ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrReference},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := errors.New("connection reset")
	if got := mapError(other); got != other {
		t.Fatalf("expected passthrough, got %v", got)
	}
	if mapError(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}

func TestAffectedOne(t *testing.T) {
	if err := affectedOne(pgconn.NewCommandTag("UPDATE 0"), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := affectedOne(pgconn.NewCommandTag("DELETE 1"), nil); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/shop?sslmode=disable": "pgx5://u:p@db:5432/shop?sslmode=disable",
		"postgresql://db/shop":                        "pgx5://db/shop",
		"pgx5://db/shop":                              "pgx5://db/shop",
	}
	for in, want := range cases {
		if got := MigrateURL(in); got != want {
			t.Fatalf("MigrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, err := fs.Glob(migrationFS, "migrations/*.down.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up and %d down", len(ups), len(downs))
	}
}

func TestEventProductPricingWindow(t *testing.T) {
	ep := EventProduct{ID: "ep1", EventPrice: 79900}
	ep.Event.StartDate = testTime(0)
	ep.Event.EndDate = testTime(48)
	got := ep.Pricing()
	if got.EventPrice != 79900 || !got.Window.Start.Equal(ep.Event.StartDate) || !got.Window.End.Equal(ep.Event.EndDate) {
		t.Fatalf("unexpected override %+v", got)
	}
}

func testTime(hours int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hours) * time.Hour)
}
