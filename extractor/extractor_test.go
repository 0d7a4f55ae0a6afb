package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/softbox-mx/captura/frame"
	"github.com/softbox-mx/captura/store"
)

type fakeService struct {
	chunks []Chunk
	err    error
	calls  int
}

func (s *fakeService) Parse(_ context.Context, _ string) ([]Chunk, error) {
	s.calls++
	return s.chunks, s.err
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

func newTestExtractor(t *testing.T, areas store.Areas, svc Service) *Extractor {
	t.Helper()
	e := New(areas, svc, "https://openia.soft-box.com.mx/files/", time.UTC, nil)
	e.now = func() time.Time { return time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC) }
	return e
}

func writePage(t *testing.T, areas store.Areas, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(areas.Pages, name), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractRowPerGrounding(t *testing.T) {
	areas := testAreas(t)
	writePage(t, areas, "covalca_3_page_16.pdf")

	svc := &fakeService{chunks: []Chunk{
		{ID: "c1", Type: "text", Text: "hello", Groundings: []Grounding{{Page: 0}, {Page: 0}, {Page: 0}}},
		{ID: "c2", Type: "title", Text: "INVOICE"}, // zero groundings -> one row
	}}
	e := newTestExtractor(t, areas, svc)

	res, err := e.Extract(context.Background(), "covalca_3_page_16.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 4 {
		t.Errorf("Rows = %d, want 4 (3 groundings + 1 groundless)", res.Rows)
	}
	if res.OriginalPDF != "covalca_3.pdf" || res.Page != "16" {
		t.Errorf("derived %q page %q", res.OriginalPDF, res.Page)
	}
	if svc.calls != 1 {
		t.Errorf("service called %d times, want 1", svc.calls)
	}

	f, err := frame.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if f.Cell(0, "chunk") != "1" || f.Cell(3, "chunk") != "2" {
		t.Errorf("chunk sequence = %q, %q", f.Cell(0, "chunk"), f.Cell(3, "chunk"))
	}
	if f.Cell(0, "url_file") != "https://openia.soft-box.com.mx/files/covalca_3.pdf" {
		t.Errorf("url_file = %q", f.Cell(0, "url_file"))
	}
	if f.Cell(0, "active") != "1" || f.Cell(0, "subject_mail") != "captura" {
		t.Error("constant metadata columns wrong")
	}
	if f.Cell(0, "capture_log") != "2025-08-23 12:00:00+00:00" {
		t.Errorf("capture_log = %q", f.Cell(0, "capture_log"))
	}

	// Consumed page is gone from the pending set.
	if store.Exists(filepath.Join(areas.Pages, "covalca_3_page_16.pdf")) {
		t.Error("page document not consumed")
	}
}

func TestExtractNormalizedTextCompleteness(t *testing.T) {
	areas := testAreas(t)
	writePage(t, areas, "inv_1_page_1.pdf")

	svc := &fakeService{chunks: []Chunk{
		{ID: "t1", Type: "table", Text: `<table><tr><td>a</td><td>b</td></tr></table>`},
		{ID: "t2", Type: "table", Text: `no table markup`},
		{ID: "x1", Type: "text", Text: "plain body"},
	}}
	e := newTestExtractor(t, areas, svc)

	res, err := e.Extract(context.Background(), "inv_1_page_1.pdf")
	if err != nil {
		t.Fatal(err)
	}
	f, err := frame.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Cell(0, "clean_text"); got != "[('a', 'b')]" {
		t.Errorf("table clean_text = %q", got)
	}
	if got := f.Cell(1, "clean_text"); got != "[]" {
		t.Errorf("tableless table-chunk clean_text = %q", got)
	}
	if got := f.Cell(2, "clean_text"); got != "plain body" {
		t.Errorf("text clean_text = %q, want raw fallback", got)
	}
	for i := 0; i < f.Len(); i++ {
		if f.Cell(i, "clean_text") == "" {
			t.Errorf("row %d: empty clean_text", i)
		}
	}
}

func TestExtractConflictWhenOutputExists(t *testing.T) {
	areas := testAreas(t)
	writePage(t, areas, "inv_1_page_2.pdf")
	os.WriteFile(filepath.Join(areas.Results, "inv_1_page_2.csv"), []byte("done"), 0o644)

	e := newTestExtractor(t, areas, &fakeService{})
	if _, err := e.Extract(context.Background(), "inv_1_page_2.pdf"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	// Input must survive a refused run.
	if !store.Exists(filepath.Join(areas.Pages, "inv_1_page_2.pdf")) {
		t.Error("page document consumed despite conflict")
	}
}

func TestExtractServiceFailureKeepsInput(t *testing.T) {
	areas := testAreas(t)
	writePage(t, areas, "inv_1_page_3.pdf")

	svc := &fakeService{err: errors.New("upstream down")}
	e := newTestExtractor(t, areas, svc)
	if _, err := e.Extract(context.Background(), "inv_1_page_3.pdf"); err == nil {
		t.Fatal("expected error")
	}
	if !store.Exists(filepath.Join(areas.Pages, "inv_1_page_3.pdf")) {
		t.Error("page document consumed despite failure")
	}
	if store.Exists(filepath.Join(areas.Results, "inv_1_page_3.csv")) {
		t.Error("partial output written despite failure")
	}
}

func TestExtractErrors(t *testing.T) {
	areas := testAreas(t)
	e := newTestExtractor(t, areas, &fakeService{})

	if _, err := e.Extract(context.Background(), "missing_page_1.pdf"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}

	writePage(t, areas, "inv_1_page_1.txt")
	if _, err := e.Extract(context.Background(), "inv_1_page_1.txt"); !errors.Is(err, store.ErrUnsupportedType) {
		t.Errorf("bad ext: err = %v, want ErrUnsupportedType", err)
	}

	writePage(t, areas, "nosuffix.pdf")
	var verr *store.ValidationError
	if _, err := e.Extract(context.Background(), "nosuffix.pdf"); !errors.As(err, &verr) {
		t.Errorf("no page suffix: err = %v, want ValidationError", err)
	}
}
