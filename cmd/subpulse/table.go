package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn names one output column. Numeric columns (IDs, counts,
// offsets) are right-aligned; everything else reads left to right.
type tableColumn struct {
	name    string
	numeric bool
}

func numCol(name string) tableColumn  { return tableColumn{name: name, numeric: true} }
func textCol(name string) tableColumn { return tableColumn{name: name} }

// tableView accumulates rows for a fixed column set and renders them in the
// rounded style shared by all subpulse listings.
type tableView struct {
	columns []tableColumn
	rows    []table.Row
}

func newTableView(columns ...tableColumn) *tableView {
	return &tableView{columns: columns}
}

func (v *tableView) addRow(cells ...string) {
	row := make(table.Row, len(v.columns))
	for i := range v.columns {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	v.rows = append(v.rows, row)
}

func (v *tableView) render() string {
	if len(v.columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(v.columns))
	configs := make([]table.ColumnConfig, len(v.columns))
	for i, col := range v.columns {
		header[i] = col.name
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range v.rows {
		tw.AppendRow(row)
	}
	return tw.Render()
}
