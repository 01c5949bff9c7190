package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	bold          = color.New(color.Bold).SprintFunc()
	cyan          = color.New(color.FgHiCyan).SprintFunc()
)

// ui writes colored status lines and tables.
type ui struct {
	out    io.Writer
	errOut io.Writer
}

func (u *ui) success(format string, a ...any) {
	fmt.Fprintf(u.out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *ui) warning(format string, a ...any) {
	fmt.Fprintf(u.errOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *ui) table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
