package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
)

// column is a table heading; numeric columns are right aligned
type column struct {
	title   string
	numeric bool
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

// renderTable draws rows under cols. Missing cells render blank and cells
// past the last column are ignored.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(lo.Map(cols, func(c column, _ int) any { return c.title }))

	for _, cells := range rows {
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i], _ = lo.Nth(cells, i)
		}
		tw.AppendRow(row)
	}
	if len(rows) == 0 {
		tw.SetCaption("no entries")
	}

	tw.SetColumnConfigs(lo.Map(cols, func(c column, i int) table.ColumnConfig {
		return table.ColumnConfig{
			Number:      i + 1,
			Align:       lo.Ternary(c.numeric, text.AlignRight, text.AlignLeft),
			AlignHeader: text.AlignLeft,
		}
	}))

	return tw.Render()
}
