package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// tablePolicy strips everything but table structure from the service's
// HTML before parsing. The service output is untrusted.
var tablePolicy = bluemonday.NewPolicy().
	AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")

// TupleList parses the first HTML table in html into the textual
// tuple-list form the generator prompt consumes:
//
//	[('Header 1', 'Header 2'), ('v1', 'v2')]
//
// Header and data rows are treated alike, cell text trimmed. Input
// without a table yields "[]".
func TupleList(html string) string {
	clean := tablePolicy.Sanitize(html)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return "[]"
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return "[]"
	}

	var rows []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, quote(strings.TrimSpace(cell.Text())))
		})
		rows = append(rows, tuple(cells))
	})
	return "[" + strings.Join(rows, ", ") + "]"
}

// tuple renders cells in Python tuple notation, including the trailing
// comma of a one-element tuple, so downstream prompt rules written
// against the original format still match.
func tuple(cells []string) string {
	if len(cells) == 1 {
		return "(" + cells[0] + ",)"
	}
	return "(" + strings.Join(cells, ", ") + ")"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
