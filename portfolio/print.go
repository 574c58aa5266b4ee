package portfolio

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// PrintRenderTable writes tableModel as an ASCII table under an optional
// title, followed by its notes and errors.
func PrintRenderTable(title string, tableModel *RenderTable, writer io.Writer) {
	if title != "" {
		fmt.Fprintf(writer, "%s\n", title)
	}

	if len(tableModel.Errors) > 0 {
		fmt.Fprintln(writer, "[!] Errors were encountered. Results may be incomplete.")
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeader(tableModel.Header)
	table.SetAutoWrapText(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.AppendBulk(tableModel.Rows)
	if len(tableModel.Footer) > 0 {
		table.SetFooter(tableModel.Footer)
		table.SetFooterAlignment(tablewriter.ALIGN_LEFT)
	}
	table.Render()

	for _, note := range tableModel.Notes {
		fmt.Fprintln(writer, note)
	}
	for _, err := range tableModel.Errors {
		fmt.Fprintf(writer, "Error: %v\n", err)
	}
	fmt.Fprintln(writer, "")
}
