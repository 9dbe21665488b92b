// Package migrations embeds the idempotent schema DDL for every
// supported store. Stores execute these statements from EnsureSchema,
// so provisioning is safe to repeat on every run.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFiles returns the embedded PostgreSQL migration file
// contents in lexical order. Each file may hold multiple statements;
// Postgres executes them as one batch.
func PostgresFiles() ([]string, error) {
	return readDir(PostgresFS, "postgres")
}

// ClickhouseStatements returns the embedded ClickHouse migrations
// split into individual statements. The ClickHouse driver does not
// support multiquery in Exec.
func ClickhouseStatements() ([]string, error) {
	files, err := readDir(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, content := range files {
		stmts = append(stmts, splitStatements(content)...)
	}
	return stmts, nil
}

// readDir reads all .sql files under dir in lexical order.
func readDir(fsys embed.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		files = append(files, string(data))
	}
	return files, nil
}

// splitStatements splits SQL content into statements by semicolon.
// Migrations must not contain semicolons inside string literals and
// must use -- style comments only.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}
	joined := strings.Join(filtered, "\n")

	var stmts []string
	for _, part := range strings.Split(joined, ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
