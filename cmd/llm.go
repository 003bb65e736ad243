package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phnplatform/studyterm/internal/llm"
	"github.com/phnplatform/studyterm/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect and test the offline assistant's model",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assistant requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Filter: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No assistant requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-6s  %-28s  %6s  %6s  %6s  %s\n",
			"ID", "When", "Kind", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 92))
		for _, e := range events {
			fmt.Printf("%-5d  %-16s  %-6s  %-28s  %6d  %6d  %6d  %s\n",
				e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(e.Purpose, 6), truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, mark(e.Success))
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("request %d not found", id)
		}

		fields := [][2]string{
			{"When", e.Timestamp.Local().Format("2006-01-02 15:04:05")},
			{"Vendor", e.Provider},
			{"Model", e.Model},
			{"Kind", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Success", mark(e.Success)},
		}
		if e.ErrorMessage != "" {
			fields = append(fields, [2]string{"Error", e.ErrorMessage})
		}
		for _, f := range fields {
			fmt.Printf("%-9s %s\n", f[0]+":", f[1])
		}
		printSection("PROMPT", e.RequestBody)
		printSection("REPLY", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show assistant token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No assistant usage recorded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		printUsage(byPurpose)
		if len(byModel) > 0 {
			fmt.Println()
			printCost(byModel)
		}
		return nil
	},
}

var llmPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a one-line prompt to the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		llmCfg := cfg.LLM
		if !llmCfg.Discover() {
			return errors.New("no model configured: set STUDYTERM_LLM_PROVIDER and its API key")
		}

		dbPath, err := resolveDBPath(cmd, cfg.Local.DBPath)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		p, err := llm.NewProvider(cmd.Context(), llmCfg, st.EventRepo(), zap.NewNop())
		if err != nil {
			return err
		}

		timeout := llmCfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		start := time.Now()
		prompt := llm.Question(llm.PurposePing, "Reply with exactly one word.", "Say ready.")
		prompt.MaxTokens = 16
		c, err := p.Complete(ctx, prompt)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Model(), err)
		}
		fmt.Printf("%s replied in %s using %d tokens: %s\n",
			c.Model, time.Since(start).Round(time.Millisecond), c.Usage.Total(),
			strings.TrimSpace(string(c.Body)))
		return nil
	},
}

func printUsage(rows []store.LLMUsage) {
	fmt.Println("Usage by kind")
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n", "Kind", "Calls", "Input", "Output", "Total", "Avg Ms")
	fmt.Println(strings.Repeat("─", 72))

	var calls, in, out int
	for _, u := range rows {
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
			u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)
}

func printCost(rows []store.LLMUsage) {
	fmt.Println("Estimated cost (USD)")
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(strings.Repeat("─", 72))

	var total float64
	var unpriced []string
	for _, u := range rows {
		cost := "?"
		if price := llm.LookupCost(u.Model); price != nil {
			c := price.Cost(u.InputTokens, u.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
			truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	fmt.Println(strings.Repeat("─", 72))

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func printSection(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Printf("\n%s\n%s\n%s\n", sep, title, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one kind (chat or ping)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd, llmPingCmd)
}
