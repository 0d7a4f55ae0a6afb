package generator

import "github.com/softbox-mx/captura/frame"

// MetaColumns are the source-table metadata fields broadcast onto every
// generated row.
var MetaColumns = []string{
	"name_file", "url_file", "page", "active", "capture_log", "subject_mail",
}

// Enrich broadcasts the first non-empty value of each metadata column
// in src onto every row of gen, overwriting whatever the model put
// there. gen is left untouched; the enriched copy is returned.
func Enrich(src, gen *frame.Frame) *frame.Frame {
	out := gen.Clone()
	for _, col := range MetaColumns {
		out.Set(col, src.FirstNonEmpty(col))
	}
	return out
}
