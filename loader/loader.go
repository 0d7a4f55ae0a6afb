// Package loader runs the insertion stage: it prepares a generated
// invoice table for the destination schema and inserts all of its rows
// into PostgreSQL in one transaction.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/softbox-mx/captura/frame"
	"github.com/softbox-mx/captura/store"
)

// nullToken replaces empty and whitespace-only cells before insertion.
// The destination columns are text; a numeric or date column would
// reject this literal, so schema changes there must be coordinated.
const nullToken = "NULL"

// Loader runs the insertion stage.
type Loader struct {
	areas  store.Areas
	dsn    string
	table  string
	logger *slog.Logger

	connect func(ctx context.Context, dsn string) (DB, error)
}

// New creates a Loader inserting into the named destination table.
func New(areas store.Areas, dsn, table string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		areas:   areas,
		dsn:     dsn,
		table:   table,
		logger:  logger,
		connect: Connect,
	}
}

// Result reports a committed insertion.
type Result struct {
	Filename     string `json:"filename"`
	Table        string `json:"table"`
	RowsInserted int    `json:"rows_inserted"`
}

// Load reads one generated table from the tables area and inserts its
// rows into the destination table. All rows commit together; on any
// failure the transaction rolls back and the input file stays put. The
// input is removed only after a committed insert.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	path, err := store.Resolve(l.areas.Tables, filename)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%s: %w", filename, store.ErrUnsupportedType)
	}
	if err := store.Require(path); err != nil {
		return nil, err
	}

	f, err := frame.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := Prepare(f); err != nil {
		return nil, err
	}

	db, err := l.connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer db.Close(ctx)

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	sql, args := BuildInsert(l.table, f)
	if err := tx.Exec(ctx, sql, args...); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.logger.Error("rollback failed", "file", filename, "error", rbErr)
		}
		return nil, fmt.Errorf("insert into %s: %w", l.table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// Rows are committed; retire the generated table from the pending set.
	if err := store.Consume(path); err != nil {
		return nil, err
	}

	l.logger.Info("rows inserted",
		"file", filename, "table", l.table, "rows", f.Len())
	return &Result{
		Filename:     filename,
		Table:        l.table,
		RowsInserted: f.Len(),
	}, nil
}

// Prepare normalizes a generated table in place for the destination
// schema: rejects an empty table, replaces blank cells with the NULL
// token, and renames item_id and page to their destination column
// names.
func Prepare(f *frame.Frame) error {
	if f.Len() == 0 {
		return &store.ValidationError{Name: "rows"}
	}
	f.ReplaceBlank(nullToken)
	f.Rename("item_id", "item")
	f.Rename("page", "page_number")
	return nil
}

// BuildInsert renders one parameterized multi-row INSERT for the
// frame's rows. Column identifiers come verbatim (quoted) from the
// frame, so the statement is only as safe as the upstream schema
// discipline.
func BuildInsert(table string, f *frame.Frame) (string, []any) {
	cols := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = `"` + c + `"`
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO "` + table + `" (`)
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, f.Len()*len(f.Columns))
	n := 1
	for i, row := range f.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, cell := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("$" + strconv.Itoa(n))
			args = append(args, cell)
			n++
		}
		b.WriteString(")")
	}
	return b.String(), args
}
