package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/softbox-mx/captura/frame"
	"github.com/softbox-mx/captura/store"
)

type fakeModel struct {
	response string
	err      error
	lastUser string
}

func (m *fakeModel) Complete(_ context.Context, _, user string) (string, error) {
	m.lastUser = user
	return m.response, m.err
}

func testAreas(t *testing.T) store.Areas {
	t.Helper()
	root := t.TempDir()
	a := store.Areas{
		Files:   filepath.Join(root, "files"),
		Pages:   filepath.Join(root, "pages"),
		Results: filepath.Join(root, "results"),
		Tables:  filepath.Join(root, "tables"),
		Source:  filepath.Join(root, "source"),
	}
	if err := a.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return a
}

func writeChunkTable(t *testing.T, areas store.Areas, name string) {
	t.Helper()
	f := frame.New("chunk_id", "clean_text", "name_file", "url_file", "page",
		"active", "capture_log", "subject_mail")
	f.AppendMap(map[string]string{
		"chunk_id": "c1", "clean_text": "[('Item', 'Qty'), ('1', '4')]",
		"name_file": "inv_1.pdf", "url_file": "https://example.test/inv_1.pdf",
		"page": "2", "active": "1",
		"capture_log": "2025-08-23 12:00:00-06:00", "subject_mail": "captura",
	})
	f.AppendMap(map[string]string{
		"chunk_id": "c2", "clean_text": "INVOICE 778",
		"name_file": "inv_1.pdf", "url_file": "https://example.test/inv_1.pdf",
		"page": "2", "active": "1",
		"capture_log": "2025-08-23 12:00:00-06:00", "subject_mail": "captura",
	})
	out, err := os.Create(filepath.Join(areas.Results, name))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := f.WriteTo(out); err != nil {
		t.Fatal(err)
	}
}

func TestGenerate(t *testing.T) {
	areas := testAreas(t)
	writeChunkTable(t, areas, "inv_1_page_2.csv")

	model := &fakeModel{response: "```json\n" +
		`{"item_id": ["1", "2"], "quantity": ["4"], "invoice": ["778", "778"]}` +
		"\n```"}
	g := New(areas, model, nil)

	res, err := g.Generate(context.Background(), "inv_1_page_2.csv")
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 2 {
		t.Errorf("Rows = %d, want 2", res.Rows)
	}
	if filepath.Base(res.OutputPath) != "inv_1_page_2_generated.csv" {
		t.Errorf("output = %q", res.OutputPath)
	}

	// The prompt payload is the space-joined clean_text column.
	if !strings.Contains(model.lastUser, "[('Item', 'Qty'), ('1', '4')] INVOICE 778") {
		t.Errorf("prompt payload missing concatenated text:\n%s", model.lastUser)
	}

	out, err := frame.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	// Balanced: quantity ["4"] padded by constant repeat.
	if out.Cell(0, "quantity") != "4" || out.Cell(1, "quantity") != "4" {
		t.Errorf("quantity column = %v", out.Column("quantity"))
	}
	// Enriched metadata broadcast onto both rows.
	for i := 0; i < out.Len(); i++ {
		if out.Cell(i, "page") != "2" || out.Cell(i, "name_file") != "inv_1.pdf" {
			t.Errorf("row %d metadata = %q/%q", i, out.Cell(i, "page"), out.Cell(i, "name_file"))
		}
	}
	// Unprompted fields still appear, empty.
	if out.ColumnIndex("currency") < 0 || out.Cell(0, "currency") != "" {
		t.Error("schema column missing or non-empty")
	}

	if store.Exists(filepath.Join(areas.Results, "inv_1_page_2.csv")) {
		t.Error("chunk table not consumed after generation")
	}
}

func TestGenerateExtractionFailureKeepsInput(t *testing.T) {
	areas := testAreas(t)
	writeChunkTable(t, areas, "inv_1_page_2.csv")

	g := New(areas, &fakeModel{response: "I could not find an invoice."}, nil)
	if _, err := g.Generate(context.Background(), "inv_1_page_2.csv"); !errors.Is(err, ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	if !store.Exists(filepath.Join(areas.Results, "inv_1_page_2.csv")) {
		t.Error("chunk table consumed despite failure")
	}
	if store.Exists(filepath.Join(areas.Tables, "inv_1_page_2_generated.csv")) {
		t.Error("output written despite failure")
	}
}

func TestGenerateConflict(t *testing.T) {
	areas := testAreas(t)
	writeChunkTable(t, areas, "inv_1_page_2.csv")
	os.WriteFile(filepath.Join(areas.Tables, "inv_1_page_2_generated.csv"), []byte("done"), 0o644)

	g := New(areas, &fakeModel{}, nil)
	if _, err := g.Generate(context.Background(), "inv_1_page_2.csv"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	areas := testAreas(t)
	g := New(areas, &fakeModel{}, nil)

	if _, err := g.Generate(context.Background(), "absent.csv"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing input: err = %v, want ErrNotFound", err)
	}

	os.WriteFile(filepath.Join(areas.Results, "inv.pdf"), []byte("x"), 0o644)
	if _, err := g.Generate(context.Background(), "inv.pdf"); !errors.Is(err, store.ErrUnsupportedType) {
		t.Errorf("bad ext: err = %v, want ErrUnsupportedType", err)
	}

	// Table without the clean_text column.
	f := frame.New("chunk_id")
	f.AppendMap(map[string]string{"chunk_id": "c1"})
	out, err := os.Create(filepath.Join(areas.Results, "bare.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteTo(out); err != nil {
		t.Fatal(err)
	}
	out.Close()
	var verr *store.ValidationError
	if _, err := g.Generate(context.Background(), "bare.csv"); !errors.As(err, &verr) {
		t.Errorf("missing column: err = %v, want ValidationError", err)
	}
}
