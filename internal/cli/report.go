package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/report"
	"github.com/vital-portal/vital/internal/report/export"
)

type reportOptions struct {
	format      string
	outFile     string
	districtID  string
	talukID     string
	panchayatID string
}

func newReportCmd(load Loader, u *ui) *cobra.Command {
	opts := &reportOptions{}
	kinds := make([]string, 0, len(report.Kinds))
	for _, k := range report.Kinds {
		kinds = append(kinds, string(k))
	}
	cmd := &cobra.Command{
		Use:       "report <kind>",
		Short:     "Print or export a report",
		Long:      "Builds a report over all issues, or one district, taluk or panchayat.\nKinds: " + strings.Join(kinds, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := report.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("unknown report %q (use: %s)", args[0], strings.Join(kinds, ", "))
			}
			return withDeps(cmd.Context(), load, func(d *Deps) error {
				ds, err := d.Reports.Build(cmd.Context(), opts.actor(), kind)
				if err != nil {
					return err
				}
				if opts.format == "table" {
					return renderDataset(u, ds)
				}
				return opts.export(u, ds)
			})
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: table, csv, xlsx, json")
	cmd.Flags().StringVarP(&opts.outFile, "out", "o", "", "Write the export to this file (default: generated name)")
	cmd.Flags().StringVar(&opts.districtID, "district-id", "", "Limit to one district")
	cmd.Flags().StringVar(&opts.talukID, "taluk-id", "", "Limit to one taluk")
	cmd.Flags().StringVar(&opts.panchayatID, "panchayat-id", "", "Limit to one gram panchayat")
	return cmd
}

// actor picks the narrowest role whose scope matches the filters.
func (o *reportOptions) actor() domain.Principal {
	j := domain.Jurisdiction{DistrictID: o.districtID, TalukID: o.talukID, PanchayatID: o.panchayatID}
	p := domain.Principal{UID: "vitalctl", Name: "vitalctl", Jurisdiction: j, Verified: true}
	switch {
	case o.panchayatID != "":
		p.Role = domain.RolePDO
	case o.talukID != "":
		p.Role = domain.RoleTDO
	case o.districtID != "":
		p.Role = domain.RoleDDO
	default:
		p = domain.SystemPrincipal()
	}
	return p
}

func (o *reportOptions) export(u *ui, ds report.Dataset) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	name := o.outFile
	if name == "" {
		name = export.FileName(ds.Kind, format, ds.GeneratedAt)
	}
	var w io.Writer
	if name == "-" {
		w = u.out
	} else {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, ds); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	if name != "-" {
		u.success("wrote %s (%d rows)", name, len(ds.Rows))
	}
	return nil
}

func renderDataset(u *ui, ds report.Dataset) error {
	fmt.Fprintln(u.out, bold(ds.Title))
	for _, m := range ds.Meta {
		fmt.Fprintf(u.out, "%s: %s\n", cyan(m.Key), m.Value)
	}
	fmt.Fprintln(u.out)
	if len(ds.Rows) == 0 {
		u.warning("no rows")
		return nil
	}
	table := u.table(ds.Headers)
	for _, row := range ds.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
