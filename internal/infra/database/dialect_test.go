package database

import "testing"

func TestDialectNormalizesDrivers(t *testing.T) {
	cases := map[string]struct {
		kind       string
		driverName string
		returning  bool
	}{
		"sqlite":     {KindSQLite, "sqlite", false},
		"postgres":   {KindPostgres, "pgx", true},
		"PostgreSQL": {KindPostgres, "pgx", true},
		"pgx":        {KindPostgres, "pgx", true},
		"mysql":      {KindMySQL, "mysql", false},
	}
	for driver, want := range cases {
		d := NewDialect(driver)
		if d.Kind() != want.kind || d.DriverName() != want.driverName || d.SupportsReturning() != want.returning {
			t.Fatalf("driver %s: unexpected dialect %+v", driver, d)
		}
	}
}

func TestPlaceholderBuilder(t *testing.T) {
	pg := NewPlaceholderBuilder(NewDialect("postgres"))
	if got := pg.Next() + pg.Next(); got != "$1$2" {
		t.Fatalf("unexpected postgres placeholders %s", got)
	}
	my := NewPlaceholderBuilder(NewDialect("mysql"))
	if got := my.Next() + my.Next(); got != "??" {
		t.Fatalf("unexpected mysql placeholders %s", got)
	}
}

func TestUpsertClause(t *testing.T) {
	if got := NewDialect("mysql").UpsertClause("k", "v"); got != "ON DUPLICATE KEY UPDATE v = VALUES(v)" {
		t.Fatalf("unexpected mysql upsert %s", got)
	}
	if got := NewDialect("sqlite").UpsertClause("k", "v", "w"); got != "ON CONFLICT (k) DO UPDATE SET v = excluded.v, w = excluded.w" {
		t.Fatalf("unexpected sqlite upsert %s", got)
	}
}
