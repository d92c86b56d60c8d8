package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	siteName     string
	siteDomain   string
	siteLoginURL string
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage paywalled sites",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom sites with their session state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := current.manager()
		if err != nil {
			return err
		}
		statuses, err := manager.Sites()
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(cmd.OutOrStdout(), statuses)
		}
		printSites(cmd.OutOrStdout(), statuses)
		return nil
	},
}

var sitesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a custom site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := current.registry().Add(siteName, siteDomain, siteLoginURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s as %s\n", siteName, key)
		return nil
	},
}

var sitesRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove a custom site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.registry().Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed site: %s\n", args[0])
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <site-key>",
	Short: "Open a browser window to log into a site and save the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := current.manager()
		if err != nil {
			return err
		}
		defer manager.Close()

		fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for login in the browser window...")
		result, err := manager.Login(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", result.Message)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout <site-key>",
	Short: "Clear the saved session for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := current.manager()
		if err != nil {
			return err
		}
		cleared, err := manager.Logout(args[0])
		if err != nil {
			return err
		}
		if !cleared {
			fmt.Fprintln(cmd.OutOrStdout(), "No session found to clear")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Session cleared: %s\n", args[0])
		return nil
	},
}

func init() {
	sitesListCmd.Flags().BoolVar(&outputJSON, "json", false, "Print JSON")

	sitesAddCmd.Flags().StringVar(&siteName, "name", "", "Site name")
	sitesAddCmd.Flags().StringVar(&siteDomain, "domain", "", "Site domain")
	sitesAddCmd.Flags().StringVar(&siteLoginURL, "login-url", "", "Login page URL")
	for _, flag := range []string{"name", "domain", "login-url"} {
		_ = sitesAddCmd.MarkFlagRequired(flag)
	}

	sitesCmd.AddCommand(sitesListCmd, sitesAddCmd, sitesRemoveCmd)
}
