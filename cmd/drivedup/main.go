package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"drivedup/internal/app"
	"drivedup/internal/config"
	"drivedup/internal/dedup"
	"drivedup/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "scan", "delete").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
)

var rootCmd = &cobra.Command{
	Use:   "drivedup",
	Short: "Duplicate file finder and remover for cloud storage",
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
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Index:      %s\n", cfg.Index.Type)
		fmt.Printf("Remote:     %s\n", cfg.Remote.Type)
		fmt.Printf("Rate Limit: %.1f req/s\n", cfg.RateLimit.RequestsPerSecond)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the remote store into the local index",
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetBool("resume")

		a, err := newApp("scan")
		if err != nil {
			return err
		}
		defer a.Close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		result, err := a.Scan(cmd.Context(), resume, func(indexed int) {
			bar.Set(indexed)
		})
		bar.Finish()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			if result != nil && result.FilesIndexed > 0 {
				warnColor.Printf("Scan interrupted after %d files; run 'drivedup scan --resume' to continue\n", result.FilesIndexed)
			}
			return fmt.Errorf("scan failed: %w", err)
		}

		okColor.Printf("Scanned %d file(s) across %d page(s)\n", result.FilesIndexed, result.PagesFetched)
		if result.Skipped > 0 {
			fmt.Printf("Skipped %d file(s) without a checksum\n", result.Skipped)
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("status")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.IndexedFiles()
		if err != nil {
			return err
		}
		fmt.Printf("Indexed files: %d\n", count)

		state, ok, err := a.PendingCheckpoint()
		if err != nil {
			return err
		}
		if ok {
			warnColor.Printf("Interrupted scan: %d files scanned as of %s (resume with 'drivedup scan --resume')\n",
				state.FilesScanned, state.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Detect duplicates and report them",
	RunE: func(cmd *cobra.Command, args []string) error {
		minSize, _ := cmd.Flags().GetInt64("min-size")
		byteCompare, _ := cmd.Flags().GetBool("byte-compare")
		format, _ := cmd.Flags().GetString("format")
		exportReport, _ := cmd.Flags().GetBool("export")

		a, err := newApp("report")
		if err != nil {
			return err
		}
		defer a.Close()

		groups, err := a.Report(dedup.DetectOptions{MinSize: minSize, ByteCompare: byteCompare})
		if err != nil {
			return err
		}

		if len(groups) == 0 {
			okColor.Println("No duplicates found.")
			return nil
		}

		printGroups(groups)

		if exportReport {
			destinations, err := a.ExportReport(cmd.Context(), groups, format)
			if err != nil {
				return fmt.Errorf("exporting report: %w", err)
			}
			for _, d := range destinations {
				fmt.Printf("Report written to %s\n", d)
			}
		}
		return nil
	},
}

func printGroups(groups []*model.DuplicateGroup) {
	var wasted int64
	var files int
	for _, g := range groups {
		wasted += g.WastedSize()
		files += g.Count()
	}

	headerColor.Printf("Found %d duplicate group(s), %d file(s), %s reclaimable\n\n",
		len(groups), files, humanBytes(wasted))

	for _, g := range groups {
		fmt.Printf("Group %d: %d copies of %s (%s wasted)\n",
			g.GroupID, g.Count(), humanBytes(g.Size), humanBytes(g.WastedSize()))
		for _, f := range g.Files {
			fmt.Printf("  %s  %s  modified %s\n",
				f.ID, f.Path, f.ModifiedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Trash duplicate files, keeping one per group",
	Long: `Trash duplicate files according to the chosen strategy. Files are moved
to the remote trash, never permanently deleted. By default this is a dry run;
pass --execute to apply the plan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, _ := cmd.Flags().GetString("strategy")
		keepPath, _ := cmd.Flags().GetString("keep-path")
		minSize, _ := cmd.Flags().GetInt64("min-size")
		byteCompare, _ := cmd.Flags().GetBool("byte-compare")
		allFolders, _ := cmd.Flags().GetBool("all-folders")
		execute, _ := cmd.Flags().GetBool("execute")
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp("delete")
		if err != nil {
			return err
		}
		defer a.Close()

		// Config supplies defaults for flags the user did not set.
		defaults := a.DeleteDefaults()
		if !cmd.Flags().Changed("strategy") && defaults.Strategy != "" {
			strategy = defaults.Strategy
		}
		if !cmd.Flags().Changed("min-size") && defaults.MinSize > 0 {
			minSize = defaults.MinSize
		}

		plan, err := a.PlanDeletion(dedup.DeleteOptions{
			Strategy:    strategy,
			KeepPath:    keepPath,
			MinSize:     minSize,
			ByteCompare: byteCompare,
			AllFolders:  allFolders,
		})
		if err != nil {
			return err
		}

		if len(plan.TrashFiles) == 0 && len(plan.Renames) == 0 {
			okColor.Println("Nothing to do.")
			return nil
		}

		printPlan(plan)

		if !execute {
			warnColor.Println("Dry run: no changes made. Pass --execute to apply.")
			return nil
		}

		if !yes {
			if err := confirm(fmt.Sprintf("Trash %d file(s)?", len(plan.TrashFiles))); err != nil {
				return err
			}
		}

		bar := progressbar.NewOptions(len(plan.Renames)+len(plan.TrashFiles),
			progressbar.OptionSetDescription("applying"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)
		result, err := a.ExecutePlan(cmd.Context(), plan, false, func() {
			bar.Add(1)
		})
		bar.Finish()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		okColor.Printf("Renamed %d file(s), trashed %d file(s), reclaimed %s\n",
			result.Renames.Succeeded(), result.Trash.Succeeded(), humanBytes(result.SpaceReclaimed))

		failures := len(result.Renames.Errors) + len(result.Trash.Errors)
		if failures > 0 {
			errColor.Printf("%d action(s) failed; see the log for details\n", failures)
		}
		return nil
	},
}

func printPlan(plan *dedup.DeletePlan) {
	headerColor.Printf("Deletion plan (%s strategy)\n\n", plan.Strategy)

	if plan.SkippedCrossFolder > 0 {
		warnColor.Printf("Skipping %d cross-folder group(s); pass --all-folders to include them\n\n",
			plan.SkippedCrossFolder)
	}

	for _, r := range plan.Renames {
		fmt.Printf("rename  %s  %q -> %q\n", r.File.ID, r.File.Name, r.NewName)
	}
	for _, f := range plan.TrashFiles {
		fmt.Printf("trash   %s  %s\n", f.ID, f.Path)
	}
	fmt.Printf("\n%d group(s), %s reclaimable\n", len(plan.Groups), humanBytes(plan.SpaceReclaimable))
}

// confirm prompts for explicit confirmation on a terminal. Non-interactive
// invocations must pass --yes instead.
func confirm(question string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("refusing to execute without --yes on a non-interactive stdin")
	}

	fmt.Printf("%s Type 'yes' to continue: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if strings.TrimSpace(line) != "yes" {
		return fmt.Errorf("aborted")
	}
	return nil
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %s  %-10s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
			)
		}
		return nil
	},
}

// humanBytes renders a byte count with a binary unit for display.
func humanBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
	}
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("resume", false, "Resume an interrupted scan from its checkpoint")

	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int64("min-size", 0, "Ignore files smaller than this many bytes")
	reportCmd.Flags().Bool("byte-compare", false, "Re-verify checksum groups byte by byte")
	reportCmd.Flags().String("format", "csv", "Export format: csv or json")
	reportCmd.Flags().Bool("export", false, "Deliver the report to the configured sinks")

	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().String("strategy", "newest", "Keep strategy: "+strings.Join(dedup.StrategyNames, ", "))
	deleteCmd.Flags().String("keep-path", "", "Glob of paths that are never trashed")
	deleteCmd.Flags().Int64("min-size", 0, "Ignore files smaller than this many bytes")
	deleteCmd.Flags().Bool("byte-compare", false, "Re-verify checksum groups byte by byte")
	deleteCmd.Flags().Bool("all-folders", false, "Act on groups spanning multiple folders")
	deleteCmd.Flags().Bool("execute", false, "Apply the plan instead of printing it")
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
