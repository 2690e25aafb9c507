package report

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

const columnGap = "  "

// simpleTable renders rows in the "simple" layout: a header line, a dashed
// rule per column, then the rows. Numeric columns are right aligned.
func simpleTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	numeric := make([]bool, len(headers))
	for i, h := range headers {
		widths[i] = tablewriter.DisplayWidth(h)
		numeric[i] = len(rows) > 0
	}
	body := make([][]string, 0, len(rows)+2)
	body = append(body, headers, nil)
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range headers {
			cells[i] = cellAt(row, i)
			widths[i] = max(widths[i], tablewriter.DisplayWidth(cells[i]))
			if _, err := strconv.ParseFloat(cells[i], 64); err != nil {
				numeric[i] = false
			}
		}
		body = append(body, cells)
	}
	rule := make([]string, len(headers))
	align := make([]int, len(headers))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
		align[i] = tablewriter.ALIGN_LEFT
		if numeric[i] {
			align[i] = tablewriter.ALIGN_RIGHT
		}
	}
	body[1] = rule

	var buf bytes.Buffer
	t := tablewriter.NewWriter(&buf)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetRowLine(false)
	t.SetNoWhiteSpace(true)
	t.SetTablePadding(columnGap)
	t.SetColumnSeparator("")
	t.SetCenterSeparator("")
	t.SetColumnAlignment(align)
	t.AppendBulk(body)
	t.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
