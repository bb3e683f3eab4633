package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/firmkit/internal/command"
	"github.com/kalambet/firmkit/internal/config"
	"github.com/kalambet/firmkit/internal/firmware"
	"github.com/kalambet/firmkit/internal/tools"
)

func defaultSession() string {
	if s := os.Getenv("FIRMKIT_SESSION"); s != "" {
		return s
	}
	return "cli"
}

// --- research ---

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Start, poll and list deep research jobs",
}

var researchStartCmd = &cobra.Command{
	Use:   "start <topic>",
	Short: "Start a deep research job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		session, _ := cmd.Flags().GetString("session")

		out, err := a.research.Create(cmd.Context(), session, args[0])
		if err != nil {
			return err
		}
		printSuccess("Deep research created with id %s", out.ID)
		fmt.Fprintln(cmd.OutOrStdout(), out.ID)
		return nil
	},
}

var researchGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get the status of a job and save its report when done",
	Long: `Get the status of a deep research job.

When the job has succeeded its report is written to --output.

Examples:
  firmkit research get 6650f0c2 --output ./report.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return fmt.Errorf("--output is required")
		}

		a, err := loadApp()
		if err != nil {
			return err
		}

		job, err := a.research.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting deep research %s: %w", args[0], err)
		}
		text, err := tools.DescribeJob(job, output)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var researchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deep research jobs",
	Long: `List deep research jobs.

By default only jobs started from the current session are listed.

Examples:
  firmkit research list --all --sort -createdAt --limit 10
  firmkit research list --where '{"metadata.research.status":{"equals":"succeeded"}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		session, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")
		sort, _ := cmd.Flags().GetString("sort")
		rawWhere, _ := cmd.Flags().GetString("where")

		var user firmware.Where
		if rawWhere != "" {
			w, err := firmware.ParseWhere(rawWhere)
			if err != nil {
				return err
			}
			user = w
		}

		a, err := loadApp()
		if err != nil {
			return err
		}

		out, err := a.research.List(cmd.Context(), firmware.ListFilters{
			Where: firmware.BuildWhere(firmware.WhereOptions{
				SessionID:          session,
				CurrentSessionOnly: !all,
				User:               user,
			}),
			Limit: limit,
			Sort:  sort,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tools.DescribeJobs(out))
		return nil
	},
}

func init() {
	researchStartCmd.Flags().String("session", defaultSession(), "session id to tag the job with")

	researchGetCmd.Flags().String("output", "", "file to write the report to")

	researchListCmd.Flags().Bool("all", false, "list jobs from every session")
	researchListCmd.Flags().String("session", defaultSession(), "session id to filter by")
	researchListCmd.Flags().Int("limit", 0, "maximum number of results")
	researchListCmd.Flags().String("sort", "", "field to sort by; prefix with - for descending")
	researchListCmd.Flags().String("where", "", "JSON filter in Payload query syntax")

	researchCmd.AddCommand(researchStartCmd)
	researchCmd.AddCommand(researchGetCmd)
	researchCmd.AddCommand(researchListCmd)
}

// --- quota ---

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show quota usage for the current window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return runCommand(cmd.Context(), a.commands, command.QuotaCommandName, cmd.OutOrStdout())
	},
}

// runCommand runs an intercepted command and prints what it posts.
func runCommand(ctx context.Context, cmds *command.Interceptor, name string, w io.Writer) error {
	out := command.PosterFunc(func(_ context.Context, _ string, text string) error {
		_, err := fmt.Fprintln(w, text)
		return err
	})

	outcome, err := cmds.Before(ctx, command.Invocation{Name: name, SessionID: defaultSession()}, out)
	switch outcome {
	case command.Failed:
		return err
	case command.Continue:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

// --- analyse ---

var analyseCmd = &cobra.Command{
	Use:     "analyse <image> <prompt>",
	Aliases: []string{"analyze"},
	Short:   "Ask Gemini about a local image",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		printStep("Analysing %s", args[0])

		text, err := a.images.Analyze(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s (%s)\n", colorize(colorBold, k.Key), k.Value, k.Source)
		}
		printStatus("gemini.api_key", "%s", secretState(cfg.Gemini.APIKey))
		printStatus("server.token", "%s", secretState(cfg.Server.Token))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printWarning("valid keys: %v", config.ValidKeys())
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

func secretState(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}
