package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"anymouse-hq/anymouse/pkg/audit"
	"anymouse-hq/anymouse/pkg/cli"
	"anymouse-hq/anymouse/pkg/config"

	"github.com/spf13/cobra"
)

var auditFlags struct {
	backend   string
	timeRange string
	since     time.Duration
	action    string
	status    string
	client    string
	limit     int
	offset    int
	format    string
	days      int
	dryRun    bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query and prune the audit trail",
	Long: `Query, summarize and prune the audit trail.

Audit records hold no text, payload or token values: only the action, the
outcome, entity and field counts, the caller and timing.

Subcommands:
  query  - List audit records with filters
  report - Summarize records by action, status and client
  prune  - Delete records older than the retention period

Examples:
  # Last hour of failed calls as CSV
  anymouse audit query --since 1h --status error --format csv

  # Summary for one day
  anymouse audit report --time-range "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

  # Show what a 7 day retention would delete
  anymouse audit prune --days 7 --dry-run`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	RunE:  queryAudit,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize audit records",
	RunE:  reportAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records past retention",
	RunE:  pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditReportCmd, auditPruneCmd)

	auditCmd.PersistentFlags().StringVar(&auditFlags.backend, "backend", "", "backend: sqlite3, sqlite (uses config if not specified)")

	for _, c := range []*cobra.Command{auditQueryCmd, auditReportCmd} {
		c.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().DurationVar(&auditFlags.since, "since", 0, "only records newer than this (e.g. 24h)")
		c.Flags().StringVar(&auditFlags.action, "action", "", "filter by action (anonymize, deanonymize, config_test)")
		c.Flags().StringVar(&auditFlags.status, "status", "", "filter by status (success, error, denied)")
		c.Flags().StringVar(&auditFlags.client, "client", "", "filter by client ID")
		c.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	}
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "retention in days (uses config if not specified)")
	auditPruneCmd.Flags().BoolVar(&auditFlags.dryRun, "dry-run", false, "count matching records without deleting")
}

// openAuditStore opens the configured store, honoring --backend.
func openAuditStore() (*config.Config, audit.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if auditFlags.backend != "" {
		cfg.Audit.Backend = auditFlags.backend
	}
	if cfg.Audit.Backend == "memory" {
		return nil, nil, cli.NewConfigError("audit.backend", "the memory backend is per process; use sqlite3 or sqlite")
	}
	store, err := audit.NewStore(cfg.Audit)
	if err != nil {
		return nil, nil, cli.NewCommandError("audit", err)
	}
	return cfg, store, nil
}

func buildAuditQuery(now time.Time) (*audit.Query, error) {
	q := &audit.Query{
		Action:   auditFlags.action,
		Status:   auditFlags.status,
		ClientID: auditFlags.client,
	}
	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = start, end
	}
	if auditFlags.since > 0 {
		q.StartTime = now.Add(-auditFlags.since)
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("time range ends before it starts")
	}
	return start, end, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(auditFlags.format)
	if err != nil {
		return err
	}
	q, err := buildAuditQuery(time.Now())
	if err != nil {
		return err
	}
	q.Limit, q.Offset = auditFlags.limit, auditFlags.offset

	_, store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(commandContext(cmd), q)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}
	return writeAuditRecords(out(cmd), format, records)
}

// recordTable renders records for text and CSV output.
type recordTable []*audit.Record

func (recordTable) Headers() []string {
	return []string{"created_at", "action", "status", "shape", "entities", "fields", "client_id", "source_ip", "duration_ms", "request_id"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Action,
			r.Status,
			r.Shape,
			strconv.Itoa(r.EntityCount),
			strconv.Itoa(r.FieldCount),
			r.ClientID,
			r.SourceIP,
			strconv.FormatFloat(float64(r.Duration)/float64(time.Millisecond), 'f', 2, 64),
			r.RequestID,
		})
	}
	return rows
}

func writeAuditRecords(w io.Writer, format cli.OutputFormat, records []*audit.Record) error {
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(w, map[string]any{
			"total_records": len(records),
			"records":       records,
		})
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(w, recordTable(records))
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No records found.")
			return err
		}
		fmt.Fprintf(w, "Total records: %d\n\n", len(records))
		return cli.NewFormatter(format).FormatTo(w, recordTable(records))
	}
}

// auditSummary counts records per dimension.
type auditSummary struct {
	Total    int            `json:"total"`
	Entities int            `json:"entities"`
	ByAction map[string]int `json:"by_action"`
	ByStatus map[string]int `json:"by_status"`
	ByClient map[string]int `json:"by_client"`
}

func summarize(records []*audit.Record) auditSummary {
	s := auditSummary{
		ByAction: map[string]int{},
		ByStatus: map[string]int{},
		ByClient: map[string]int{},
	}
	for _, r := range records {
		s.Total++
		s.Entities += r.EntityCount
		s.ByAction[r.Action]++
		s.ByStatus[r.Status]++
		client := r.ClientID
		if client == "" {
			client = "(anonymous)"
		}
		s.ByClient[client]++
	}
	return s
}

// Headers and Rows flatten the summary for CSV output.
func (s auditSummary) Headers() []string { return []string{"dimension", "value", "count"} }

func (s auditSummary) Rows() [][]string {
	var rows [][]string
	for _, dim := range []struct {
		name   string
		counts map[string]int
	}{{"action", s.ByAction}, {"status", s.ByStatus}, {"client", s.ByClient}} {
		for _, k := range sortedKeys(dim.counts) {
			rows = append(rows, []string{dim.name, k, strconv.Itoa(dim.counts[k])})
		}
	}
	return rows
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func reportAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(auditFlags.format)
	if err != nil {
		return err
	}
	q, err := buildAuditQuery(time.Now())
	if err != nil {
		return err
	}

	_, store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(commandContext(cmd), q)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}
	return writeAuditReport(out(cmd), format, summarize(records))
}

func writeAuditReport(w io.Writer, format cli.OutputFormat, s auditSummary) error {
	if format != cli.FormatText {
		return cli.NewFormatter(format).FormatTo(w, s)
	}

	fmt.Fprintln(w, "Audit Report")
	fmt.Fprintln(w, "============")
	fmt.Fprintf(w, "Total Requests: %d\n", s.Total)
	fmt.Fprintf(w, "Entities Replaced: %d\n", s.Entities)
	for _, dim := range []struct {
		title  string
		counts map[string]int
	}{{"By Action", s.ByAction}, {"By Status", s.ByStatus}, {"By Client", s.ByClient}} {
		fmt.Fprintf(w, "\n%s:\n", dim.title)
		for _, k := range sortedKeys(dim.counts) {
			pct := float64(dim.counts[k]) / float64(s.Total) * 100
			fmt.Fprintf(w, "  %s: %d (%.0f%%)\n", k, dim.counts[k], pct)
		}
	}
	return nil
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	days := cfg.Audit.Retention.Days
	if auditFlags.days > 0 {
		days = auditFlags.days
	}
	w := out(cmd)
	if days <= 0 {
		_, err := fmt.Fprintln(w, "Retention disabled; nothing to prune.")
		return err
	}

	ctx := commandContext(cmd)
	if auditFlags.dryRun {
		cutoff := time.Now().AddDate(0, 0, -days)
		n, err := store.Count(ctx, &audit.Query{EndTime: cutoff})
		if err != nil {
			return cli.NewCommandError("audit", err)
		}
		_, err = fmt.Fprintf(w, "Would delete %d records older than %d days\n", n, days)
		return err
	}

	n, err := audit.NewPruner(store, days, nil).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	_, err = fmt.Fprintf(w, "✓ Deleted %d records older than %d days\n", n, days)
	return err
}
