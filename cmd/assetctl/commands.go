package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
)

var errDivergence = errors.New("metadata references missing blobs")

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <user-id>",
		Short: "List a user's profile image history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, current, err := a.assets.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := asset.PublicView(current)
			w := cmd.OutOrStdout()
			if ok, err := writeStructured(w, a.out, view); ok {
				return err
			}
			return writeVersionTable(w, view)
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every asset's current blobs exist on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			div, err := a.assets.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if div == nil {
				div = []asset.Divergence{}
			}

			w := cmd.OutOrStdout()
			ok, err := writeStructured(w, a.out, div)
			if !ok {
				err = writeDivergenceTable(w, div)
			}
			if err != nil {
				return err
			}
			if len(div) > 0 {
				return fmt.Errorf("%w: %d", errDivergence, len(div))
			}
			return nil
		},
	}
}

func newShowUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-user <user-id>",
		Short: "Show a user's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.users.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := user.PublicView(u)
			w := cmd.OutOrStdout()
			if ok, err := writeStructured(w, a.out, view); ok {
				return err
			}
			return writeUserTable(w, view)
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <user-id> <thumb|full> <file>",
		Short: "Copy a user's current derivative to a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := asset.ParseRole(args[1])
			if err != nil {
				return err
			}
			blob, err := a.assets.Retrieve(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			defer blob.Body.Close()

			f, err := os.Create(args[2])
			if err != nil {
				return err
			}
			n, err := io.Copy(f, blob.Body)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %s)\n", args[2], blob.ContentType, humanize.Bytes(uint64(n)))
			return nil
		},
	}
}
