// Command teamarrctl is the operator CLI for teamarrd: trigger a
// generation cycle by hand, inspect cache stats, dump the template
// variable catalog, and manage detection keywords without touching the
// database directly.
//
// Usage:
//
//	teamarrctl generate trigger
//	teamarrctl cache stats
//	teamarrctl vars list
//	teamarrctl detection list --category league_hints
//	teamarrctl detection add --category league_hints --keyword "epl" --target "eng.1"
//	teamarrctl detection remove --id abc123
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/northernpowerhouse/teamarr/internal/cache"
	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/store"
	"github.com/northernpowerhouse/teamarr/internal/template"
)

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "teamarrctl",
		Short: "Operator CLI for the teamarrd daemon",
	}

	root.AddCommand(generateCmd())
	root.AddCommand(cacheCmd())
	root.AddCommand(varsCmd())
	root.AddCommand(detectionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// generate command
// --------------------------------------------------------------------------

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Trigger cycles on the running daemon",
	}
	cmd.AddCommand(generateTriggerCmd())
	return cmd
}

func generateTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger an immediate generation cycle over the daemon's manual-run endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return triggerCycle(cfg.HTTPAddr)
		},
	}
	return cmd
}

func triggerCycle(addr string) error {
	url := "http://" + addr + "/cycle/trigger"
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		fmt.Println("cycle not completed: already running or failed")
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	fmt.Println("cycle triggered")
	return nil
}

// --------------------------------------------------------------------------
// cache command
// --------------------------------------------------------------------------

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the shared response cache",
	}
	cmd.AddCommand(cacheStatsCmd())
	return cmd
}

func cacheStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print cache entry counters (entries, expired, durable)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			c := cache.New(st)
			defer c.Close()

			stats := c.Stats()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// vars command
// --------------------------------------------------------------------------

func varsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Inspect the template variable catalog",
	}
	cmd.AddCommand(varsListCmd())
	return cmd
}

func varsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every registered template variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := template.NewRegistry()
			for _, v := range reg.All() {
				fmt.Printf("%-32s %-18s %-16s %s\n", v.Name, v.Category, v.SuffixRule, v.Description)
			}
			return nil
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// detection command
// --------------------------------------------------------------------------

func detectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detection",
		Short: "Manage user-supplied detection keywords",
	}
	cmd.AddCommand(detectionListCmd())
	cmd.AddCommand(detectionAddCmd())
	cmd.AddCommand(detectionRemoveCmd())
	return cmd
}

func detectionListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user-supplied detection keyword rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListDetectionKeywords(category)
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Printf("%-36s %-20s %-20s -> %-20s regex=%-5v enabled=%-5v priority=%d\n",
					r.ID, r.Category, r.Keyword, r.TargetValue, r.IsRegex, r.Enabled, r.Priority)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category (empty = all)")
	return cmd
}

func detectionAddCmd() *cobra.Command {
	var (
		id          string
		category    string
		keyword     string
		targetValue string
		isRegex     bool
		disabled    bool
		priority    int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a detection keyword row",
		RunE: func(cmd *cobra.Command, args []string) error {
			if category == "" || keyword == "" {
				return fmt.Errorf("--category and --keyword are required")
			}
			if id == "" {
				id = fmt.Sprintf("%s-%s", category, keyword)
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			row := store.DetectionKeywordRow{
				ID:          id,
				Category:    detection.Category(category),
				Keyword:     keyword,
				IsRegex:     isRegex,
				TargetValue: targetValue,
				Enabled:     !disabled,
				Priority:    priority,
			}
			if err := st.UpsertDetectionKeyword(row); err != nil {
				return err
			}
			fmt.Printf("upserted detection row %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Row id (default: derived from category+keyword)")
	cmd.Flags().StringVar(&category, "category", "", "Detection category (required)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Keyword or regex pattern to match (required)")
	cmd.Flags().StringVar(&targetValue, "target", "", "Canonical value this keyword resolves to")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "Treat keyword as a regular expression")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the row disabled")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (lower sorts first; user rows win ties against built-ins)")
	return cmd
}

func detectionRemoveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a detection keyword row by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteDetectionKeyword(id); err != nil {
				return err
			}
			fmt.Printf("removed detection row %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Row id to remove (required)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	st, err := store.Open(cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
