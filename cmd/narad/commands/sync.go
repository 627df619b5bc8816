// ABOUTME: Sync commands for the Charm cloud index backend
// ABOUTME: Provides status, manual sync, orphan repair, wipe and key listing
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/charm"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization of the index with Charm cloud.

With NARAD_INDEX_BACKEND=charm the index lives in a Charm KV database that
syncs across every machine linked to the same Charm account through SSH keys.
The default SQLite backend keeps the index local and needs none of this.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncRepairCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// withCharm opens the configured Charm database for the duration of fn
func withCharm(cmd *cobra.Command, fn func(*charm.Client) error) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openCharm(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(client *charm.Client) error {
				out := cmd.OutOrStdout()
				id, err := client.ID()
				if err != nil {
					fmt.Fprintln(out, "Status: Not connected")
					fmt.Fprintln(out, "Run 'narad sync keys' to check your SSH keys")
					return nil
				}

				fmt.Fprintln(out, "Status: Connected")
				fmt.Fprintf(out, "User ID: %s\n", id)
				fmt.Fprintf(out, "Host: %s\n", client.Host())
				return nil
			})
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(client *charm.Client) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
				if err := client.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
				return nil
			})
		},
	}
}

func newSyncRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Remove entries orphaned by concurrent rebuilds",
		Long: `Remove index entries whose collection record no longer exists.

When two machines rebuild the same collection at once and sync afterwards,
entries of the losing rebuild can outlive their collection record. Searches
ignore them, but they waste space and sync time. This command deletes them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(client *charm.Client) error {
				removed, err := charm.NewStore(client).Repair(cmd.Context())
				if err != nil {
					return fmt.Errorf("repair failed: %w", err)
				}

				if removed > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Repaired: removed %d orphaned entries\n", removed)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No repair needed: every entry belongs to a collection")
				}
				return nil
			})
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe all local data (nuclear option)",
		Long: `Completely wipe the local copy of the Charm index database.

WARNING: This deletes all locally cached data. Your cloud data
remains intact and will be re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe ALL local index data!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			return withCharm(cmd, func(client *charm.Client) error {
				if err := client.Reset(); err != nil {
					return fmt.Errorf("failed to wipe data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local data wiped successfully")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCharm(cmd, func(client *charm.Client) error {
				keys, err := client.GetAuthorizedKeys()
				if err != nil {
					return fmt.Errorf("failed to get authorized keys: %w", err)
				}

				if keys == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
				fmt.Fprintln(cmd.OutOrStdout(), keys)
				return nil
			})
		},
	}
}
