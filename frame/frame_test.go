package frame

import (
	"bytes"
	"reflect"
	"testing"
)

func TestAppendMapAndCell(t *testing.T) {
	f := New("a", "b", "c")
	f.AppendMap(map[string]string{"a": "1", "c": "3"})

	if got := f.Cell(0, "a"); got != "1" {
		t.Errorf("Cell(a) = %q", got)
	}
	if got := f.Cell(0, "b"); got != "" {
		t.Errorf("Cell(b) = %q, want empty for missing key", got)
	}
	if got := f.Cell(0, "missing"); got != "" {
		t.Errorf("Cell(missing) = %q", got)
	}
}

func TestSetBroadcast(t *testing.T) {
	f := New("x")
	f.AppendMap(map[string]string{"x": "1"})
	f.AppendMap(map[string]string{"x": "2"})

	// Overwrite an existing column.
	f.Set("x", "v")
	if got := f.Column("x"); !reflect.DeepEqual(got, []string{"v", "v"}) {
		t.Errorf("Column(x) = %v", got)
	}

	// Append a new column.
	f.Set("page", "3")
	if got := f.Column("page"); !reflect.DeepEqual(got, []string{"3", "3"}) {
		t.Errorf("Column(page) = %v", got)
	}
	if len(f.Rows[0]) != len(f.Columns) {
		t.Error("row width out of sync with columns")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	f := New("page")
	for _, v := range []string{"", "3", "3"} {
		f.AppendMap(map[string]string{"page": v})
	}
	if got := f.FirstNonEmpty("page"); got != "3" {
		t.Errorf("FirstNonEmpty = %q, want 3", got)
	}
	if got := f.FirstNonEmpty("absent"); got != "" {
		t.Errorf("FirstNonEmpty(absent) = %q", got)
	}
}

func TestReplaceBlank(t *testing.T) {
	f := New("a", "b")
	f.AppendMap(map[string]string{"a": "   ", "b": "0"})
	f.ReplaceBlank("NULL")

	if got := f.Cell(0, "a"); got != "NULL" {
		t.Errorf("whitespace cell = %q, want NULL", got)
	}
	if got := f.Cell(0, "b"); got != "0" {
		t.Errorf("zero cell = %q, want 0 unchanged", got)
	}
}

func TestRename(t *testing.T) {
	f := New("item_id", "page")
	f.Rename("item_id", "item")
	f.Rename("page", "page_number")
	f.Rename("ghost", "x")
	want := []string{"item", "page_number"}
	if !reflect.DeepEqual(f.Columns, want) {
		t.Errorf("Columns = %v, want %v", f.Columns, want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	f := New("chunk_id", "clean_text")
	f.AppendMap(map[string]string{"chunk_id": "c1", "clean_text": "[('a', 'b')]"})
	f.AppendMap(map[string]string{"chunk_id": "c2", "clean_text": "line1\nline2"})

	var buf bytes.Buffer
	if err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Columns, f.Columns) {
		t.Errorf("columns = %v", got.Columns)
	}
	if !reflect.DeepEqual(got.Rows, f.Rows) {
		t.Errorf("rows = %v, want %v", got.Rows, f.Rows)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := New("a")
	f.AppendMap(map[string]string{"a": "1"})
	c := f.Clone()
	c.SetCell(0, "a", "changed")
	if f.Cell(0, "a") != "1" {
		t.Error("clone mutated the original")
	}
}
