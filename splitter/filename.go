package splitter

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var pageSuffixRe = regexp.MustCompile(`^(.+?)_page_(\d+)$`)

// stem strips the extension and any trailing "_generated" marker.
func stem(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, "_generated")
}

// PageNumber extracts the page index from a per-page artifact name,
// e.g. "covalca_3_page_16.pdf" -> "16". Returns "" when the name does
// not carry a page suffix.
func PageNumber(filename string) string {
	m := pageSuffixRe.FindStringSubmatch(stem(filename))
	if m == nil {
		return ""
	}
	return m[2]
}

// OriginalName derives the original PDF's name from any downstream
// artifact name: "covalca_3_page_16.pdf" -> "covalca_3.pdf",
// "covalca_9_page_3_generated.xlsx" -> "covalca_9.pdf". A name without
// a page suffix keeps its own stem.
func OriginalName(filename string) string {
	s := stem(filename)
	if m := pageSuffixRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s + ".pdf"
}

// PageName builds the canonical per-page artifact name.
func PageName(base string, page int, ext string) string {
	return base + "_page_" + strconv.Itoa(page) + ext
}
