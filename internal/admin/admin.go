// Package admin implements the operator command line: schema migration,
// listing and inspecting verifications, and wiping the store.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
)

var ErrUsage = errors.New("usage")

const Usage = `usage: admin [server flags] <command>

commands:
  migrate                  apply schema migrations
  list [all|verified]      list verifications (default all)
  list pending <npub>      list finalized, unverified verifications created by npub
  show <id>                print one verification with its note
  clear -yes               delete every note and verification
`

type Store interface {
	ListAll(ctx context.Context) ([]*models.Verification, error)
	ListVerified(ctx context.Context) ([]*models.Verification, error)
	ListPendingByCreator(ctx context.Context, npub string) ([]*models.Verification, error)
	GetVerification(ctx context.Context, id string) (*services.VerificationWithNote, error)
	Clear(ctx context.Context) (*services.ClearResult, error)
}

type CLI struct {
	store   Store
	migrate func(context.Context) error
	out     io.Writer
}

func NewCLI(store Store, migrate func(context.Context) error, out io.Writer) *CLI {
	return &CLI{store: store, migrate: migrate, out: out}
}

// Run executes the command in args (positional arguments only). flags holds
// the raw command line and is consulted for -yes.
func (c *CLI) Run(ctx context.Context, args []string, flags []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "migrate":
		if err := c.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "migrations applied")
		return nil
	case "list":
		return c.list(ctx, args[1:])
	case "show":
		if len(args) != 2 {
			return ErrUsage
		}
		return c.show(ctx, args[1])
	case "clear":
		if !slices.Contains(flags, "-yes") && !slices.Contains(flags, "--yes") {
			return fmt.Errorf("refusing to clear without -yes")
		}
		res, err := c.store.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "deleted %d notes and %d verifications\n", res.Notes, res.Verifications)
		return nil
	default:
		return ErrUsage
	}
}

func (c *CLI) list(ctx context.Context, args []string) error {
	var (
		list []*models.Verification
		err  error
	)
	switch {
	case len(args) == 0 || (len(args) == 1 && args[0] == "all"):
		list, err = c.store.ListAll(ctx)
	case len(args) == 1 && args[0] == "verified":
		list, err = c.store.ListVerified(ctx)
	case len(args) == 2 && args[0] == "pending":
		list, err = c.store.ListPendingByCreator(ctx, args[1])
	default:
		return ErrUsage
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tMERCHANT\tRECIPIENT\tCREATED\tVERIFIED")
	for _, v := range list {
		verified := "-"
		if v.VerifiedAt != nil {
			verified = v.VerifiedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Status, v.MerchantName, v.RecipientNpub, v.CreatedAt.Format(time.RFC3339), verified)
	}
	return w.Flush()
}

func (c *CLI) show(ctx context.Context, id string) error {
	res, err := c.store.GetVerification(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
