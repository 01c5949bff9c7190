// Package cli implements vitalctl, the operator command line for the portal.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/report"
)

// ReportBuilder builds scoped report datasets.
type ReportBuilder interface {
	Build(ctx context.Context, actor domain.Principal, kind report.Kind) (report.Dataset, error)
}

// IssueCloser closes long-resolved issues.
type IssueCloser interface {
	CloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

// AdminCreator provisions administrator accounts.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, name, email, password string) (*domain.AuthorityProfile, error)
}

// Deps are the services commands run against.
type Deps struct {
	Reports ReportBuilder
	Issues  IssueCloser
	Admins  AdminCreator
	// CloseAfter is the default age for close-resolved.
	CloseAfter time.Duration
	// Close releases connections once the command finishes.
	Close func()
}

// Loader connects to the backing stores. It runs only when a command needs it,
// so --help works without a database.
type Loader func(ctx context.Context) (*Deps, error)

// NewRootCmd builds the vitalctl command tree.
func NewRootCmd(load Loader, out, errOut io.Writer) *cobra.Command {
	u := &ui{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "vitalctl",
		Short:         "Operate the VITAL civic issue portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(
		newReportCmd(load, u),
		newCloseResolvedCmd(load, u),
		newCreateAdminCmd(load, u),
	)
	return root
}

func withDeps(ctx context.Context, load Loader, fn func(*Deps) error) error {
	deps, err := load(ctx)
	if err != nil {
		return err
	}
	if deps.Close != nil {
		defer deps.Close()
	}
	return fn(deps)
}
