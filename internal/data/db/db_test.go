package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg_unique", err: fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "pg_fk", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: users.subject_id"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")) || !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("IsForeignKeyViolation missed a foreign key error")
	}
}

func TestConfigDSN(t *testing.T) {
	pg := Config{Host: "db", Port: "5432", User: "app", Password: "p@ss", Name: "remission"}
	if got := pg.postgresDSN(); got != "postgres://app:p%40ss@db:5432/remission?sslmode=disable" {
		t.Fatalf("postgresDSN=%q", got)
	}
	if got := (Config{URL: "postgres://x"}).postgresDSN(); got != "postgres://x" {
		t.Fatalf("URL should win: %q", got)
	}

	mem, err := Config{URL: ":memory:"}.sqliteDSN()
	if err != nil || mem != "file::memory:?_foreign_keys=on" {
		t.Fatalf("sqliteDSN(:memory:)=%q, %v", mem, err)
	}
	path := t.TempDir() + "/nested/app.db"
	dsn, err := Config{URL: path}.sqliteDSN()
	if err != nil || !strings.HasSuffix(dsn, "app.db?_foreign_keys=on") {
		t.Fatalf("sqliteDSN(file)=%q, %v", dsn, err)
	}
}
