package migrations

import (
	"strings"
	"testing"
)

func TestPostgresFiles(t *testing.T) {
	files, err := PostgresFiles()
	if err != nil {
		t.Fatalf("PostgresFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected at least one postgres migration")
	}
	if !strings.Contains(files[0], "CREATE TABLE IF NOT EXISTS crypto_prices") {
		t.Errorf("first migration should create crypto_prices, got:\n%s", files[0])
	}
}

func TestClickhouseStatements(t *testing.T) {
	stmts, err := ClickhouseStatements()
	if err != nil {
		t.Fatalf("ClickhouseStatements: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatal("expected at least one clickhouse statement")
	}
	for i, stmt := range stmts {
		if strings.Contains(stmt, ";") {
			t.Errorf("statement %d still contains a semicolon: %s", i, stmt)
		}
		if strings.TrimSpace(stmt) == "" {
			t.Errorf("statement %d is empty", i)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	input := `-- leading comment
CREATE TABLE a (x Int64);

-- another comment
CREATE TABLE b (y Int64);
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("unexpected first statement: %s", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") {
		t.Errorf("unexpected second statement: %s", stmts[1])
	}
}
