package store

import (
	"os"
	"strings"
	"testing"
)

// migrationColumns extracts the column names of one CREATE TABLE block so
// query column lists can be checked against the schema they run on.
func migrationColumns(t *testing.T, table string) map[string]bool {
	t.Helper()

	raw, err := os.ReadFile("../../../migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	cols := map[string]bool{}
	inTable := false
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if strings.HasPrefix(line, ");") {
			break
		}
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		first := strings.Fields(line)[0]
		switch strings.ToUpper(strings.TrimSuffix(first, ",")) {
		case "UNIQUE", "PRIMARY", "CHECK", "FOREIGN", "CONSTRAINT":
			continue
		}
		cols[first] = true
	}
	if len(cols) == 0 {
		t.Fatalf("no columns found for table %q", table)
	}
	return cols
}

func assertColumnsExist(t *testing.T, table, columnList string) {
	t.Helper()
	cols := migrationColumns(t, table)
	for _, c := range strings.Split(columnList, ",") {
		c = strings.TrimSpace(c)
		if !cols[c] {
			t.Errorf("query column %q is not defined on table %q", c, table)
		}
	}
}

func TestSeriesQueryColumnsMatchSchema(t *testing.T) {
	assertColumnsExist(t, "series", seriesColumns)
}

func TestEpisodeQueryColumnsMatchSchema(t *testing.T) {
	assertColumnsExist(t, "episodes", episodeColumns)
}
