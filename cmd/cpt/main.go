package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"cpt-go/internal/app"
	"cpt-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a CPTApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Copy", "Sync").
func newApp(operation string) (*app.CPTApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'cpt config init' first): %w", err)
	}

	a, err := app.NewCPTApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// confirmOnTerminal prints the diff and asks for a y/n answer on stdin.
// Refuses (returns an always-false decision) when stdin is not a terminal,
// so a piped invocation never hangs waiting for input.
func confirmOnTerminal() app.ConfirmFunc {
	return func(diff []string) bool {
		fmt.Println(strings.Join(diff, "\n"))
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "stdin is not a terminal; use --yes to copy without confirmation")
			return false
		}
		fmt.Print("\nCopy all (y/n)? ")
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(answer), "y")
	}
}

var rootCmd = &cobra.Command{
	Use:   "cpt",
	Short: "Directory backup and sync tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Repository: %s\n", cfg.RepoDir)
		fmt.Printf("Tag index:  %s\n", cfg.Index.Path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Repository: %s\n", cfg.RepoDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Tag index:  %s (%s)\n", cfg.Index.Path, cfg.Index.Type)
		return nil
	},
}

// cp command
var cpCmd = &cobra.Command{
	Use:   "cp SRC DST",
	Short: "Copy missing or changed entries from one directory to another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp("Copy")
		if err != nil {
			return err
		}
		defer a.Close()

		var confirm app.ConfirmFunc
		if !yes {
			confirm = confirmOnTerminal()
		}

		diff, applied, err := a.Copy(args[0], args[1], tag, confirm)
		if err != nil {
			return err
		}
		switch {
		case len(diff) == 0:
			fmt.Println("No changes found.")
		case !applied:
			fmt.Println("Nothing copied.")
		default:
			fmt.Printf("Copied %d entr%s.\n", len(diff), plural(len(diff), "y", "ies"))
		}
		return nil
	},
}

// rv command
var rvCmd = &cobra.Command{
	Use:   "rv [DIR]",
	Short: "Revert a directory to a snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		archive, _ := cmd.Flags().GetString("archive")

		a, err := newApp("Revert")
		if err != nil {
			return err
		}
		defer a.Close()

		if tag != "" {
			if len(args) > 0 {
				return fmt.Errorf("provide either a directory or --tag, not both")
			}
			if err := a.RevertTag(tag); err != nil {
				return err
			}
			fmt.Printf("Reverted to tag %s.\n", tag)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a directory or --tag is required")
		}
		if err := a.Revert(args[0], archive); err != nil {
			return err
		}
		fmt.Printf("Reverted %s.\n", args[0])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history DIR",
	Short: "View a directory's snapshot chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		chain, err := a.History(args[0])
		if err != nil {
			return err
		}
		if len(chain) == 0 {
			fmt.Println("No backup history.")
			return nil
		}
		for _, snap := range chain {
			fmt.Printf("%s  %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Path)
		}
		return nil
	},
}

// tags command
var tagsCmd = &cobra.Command{
	Use:   "tags DIR",
	Short: "View tags recorded for a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Tags")
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.Tags(args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for _, rec := range recs {
			fmt.Printf("%-20s  %s  %s\n", rec.Tag, rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.ArchivePath)
		}
		return nil
	},
}

// mksync command
var mksyncCmd = &cobra.Command{
	Use:   "mksync DIR SRC...",
	Short: "Record the source directories DIR syncs from",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MakeSyncManifest")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.MakeSyncManifest(args[0], args[1:]); err != nil {
			return err
		}
		fmt.Printf("Sync manifest written for %s (%d source(s)).\n", args[0], len(args)-1)
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync DIR",
	Short: "Pull a directory up to date from its sync manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")

		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Sync(args[0], tag); err != nil {
			return err
		}
		fmt.Printf("Synced %s.\n", args[0])
		return nil
	},
}

// archives command
var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List every snapshot in the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Archives")
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.Archives()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("Backup repository is empty.")
			return nil
		}
		for _, snap := range infos {
			fmt.Printf("%s  %-40s  %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Directory, snap.Path)
		}
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	cpCmd.Flags().String("tag", "", "Label the pre-copy snapshot")
	cpCmd.Flags().BoolP("yes", "y", false, "Copy without confirmation")
	rvCmd.Flags().String("tag", "", "Revert to a tagged snapshot")
	rvCmd.Flags().String("archive", "", "Revert to an explicit archive file")
	syncCmd.Flags().String("tag", "", "Label the pre-sync snapshot")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(rvCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(mksyncCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(archivesCmd)
}
