// Package generator runs the table-generation stage: it concatenates a
// page's normalized chunk text, asks the generative model for the fixed
// invoice schema as parallel arrays, recovers JSON from the free-form
// response, balances every array to the item_id length, broadcasts the
// page metadata onto the result, and persists the generated table.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/softbox-mx/captura/frame"
	"github.com/softbox-mx/captura/store"
)

// Generator runs the generation stage.
type Generator struct {
	areas  store.Areas
	model  Model
	logger *slog.Logger
}

// New creates a Generator.
func New(areas store.Areas, model Model, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{areas: areas, model: model, logger: logger}
}

// Result reports a completed generation.
type Result struct {
	Input      string `json:"input"`
	Rows       int    `json:"rows"`
	OutputPath string `json:"output_path"`
}

// Generate processes one chunk table from the results area and writes
// the generated invoice table into the tables area. The chunk table is
// removed only after the output is durably written.
func (g *Generator) Generate(ctx context.Context, filename string) (*Result, error) {
	path, err := store.Resolve(g.areas.Results, filename)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%s: %w", filename, store.ErrUnsupportedType)
	}
	if err := store.Require(path); err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	outName := stem + "_generated.csv"
	outPath := filepath.Join(g.areas.Tables, outName)
	if store.Exists(outPath) {
		return nil, fmt.Errorf("%s: %w", outName, store.ErrConflict)
	}

	src, err := frame.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if src.ColumnIndex("clean_text") < 0 {
		return nil, &store.ValidationError{Name: "clean_text"}
	}

	payload := strings.Join(src.Column("clean_text"), " ")
	raw, err := g.model.Complete(ctx, systemPrompt, userPrompt(payload))
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", filename, err)
	}

	structure, err := RecoverStructure(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	record, err := coerceRecord(structure)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	balanced, err := Balance(record)
	if err != nil {
		return nil, err
	}

	gen := recordFrame(balanced)
	enriched := Enrich(src, gen)

	out, err := store.CreateExclusive(outPath)
	if err != nil {
		return nil, err
	}
	if err := enriched.WriteTo(out); err != nil {
		out.Close()
		return nil, fmt.Errorf("write %s: %w", outName, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	// Output is durable; retire the chunk table from the pending set.
	if err := store.Consume(path); err != nil {
		return nil, err
	}

	g.logger.Info("table generated",
		"file", filename, "rows", enriched.Len(), "output", outName)
	return &Result{
		Input:      filename,
		Rows:       enriched.Len(),
		OutputPath: outPath,
	}, nil
}

// recordFrame lays a balanced record out as a frame in schema order.
// Keys outside the schema are dropped; the model was told not to
// produce them and the destination table has no columns for them.
func recordFrame(record map[string][]string) *frame.Frame {
	f := frame.New(SchemaFields...)
	n := len(record["item_id"])
	for i := 0; i < n; i++ {
		row := make(map[string]string, len(SchemaFields))
		for _, field := range SchemaFields {
			if vals, ok := record[field]; ok && i < len(vals) {
				row[field] = vals[i]
			}
		}
		f.AppendMap(row)
	}
	return f
}
