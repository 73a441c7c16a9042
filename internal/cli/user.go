// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Commands for inspecting and managing user accounts and their
registered passkeys.

These commands operate directly on the configured storage backend and
are intended for administration of a file-backed store. The memory
backend has no persisted users to manage.`,
}

// userListCmd lists all registered users
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Long: `List all registered users with their passkey counts.

Example:
  passkey user list --config /etc/passkey/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		store, err := openStoreFromConfig()
		if err != nil {
			handleError(err)
			return
		}

		users, err := store.List(context.Background())
		if err != nil {
			handleError(err)
			return
		}

		if err := printer.PrintUserList(users); err != nil {
			handleError(err)
		}
	},
}

// userShowCmd shows a single user record
var userShowCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a user's registered passkeys",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		store, err := openStoreFromConfig()
		if err != nil {
			handleError(err)
			return
		}

		user, err := store.Get(context.Background(), args[0])
		if err != nil {
			handleError(err)
			return
		}

		if err := printer.PrintUser(user); err != nil {
			handleError(err)
		}
	},
}

// userDeleteCmd deletes a user and all of its credentials
var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user and all registered passkeys",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		store, err := openStoreFromConfig()
		if err != nil {
			handleError(err)
			return
		}

		if err := store.Delete(context.Background(), args[0]); err != nil {
			handleError(err)
			return
		}

		if err := printer.PrintSuccess("deleted user " + args[0]); err != nil {
			handleError(err)
		}
	},
}

// openStoreFromConfig loads the configuration and opens its user store.
func openStoreFromConfig() (passkey.UserStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	printVerbose("Using %s storage backend", cfg.Storage.Backend)
	return openUserStore(cfg)
}

func init() {
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userDeleteCmd)
}
