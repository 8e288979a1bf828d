package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fathomhq/fathom-cli/internal/config"
	"github.com/fathomhq/fathom-cli/internal/logging"
	"github.com/fathomhq/fathom-cli/internal/query"
	"github.com/fathomhq/fathom-cli/internal/shell"
	"github.com/fathomhq/fathom-cli/internal/stats"
)

var (
	flagQueryOutput string
	flagQueryFilter string
)

var queryCmd = &cobra.Command{
	Use:   "query [QUERY]",
	Short: "Run FQL queries against the Fathom service",
	Long: `Run FQL queries against the Fathom service.

With a QUERY argument, runs it once and prints the result. Without one,
starts the interactive query terminal.

Examples:
  fathom query
  fathom query "select * from events limit 10"
  fathom query "select * from events" -o yaml
  fathom query "select * from events" -o json --filter "data[0]"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			return runOneShot(cmd.Context(), sess, args[0])
		}
		return runShell(sess)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&flagQueryOutput, "output", "o", "", "Output format (table/json/yaml)")
	queryCmd.Flags().StringVar(&flagQueryFilter, "filter", "", "JMESPath expression applied to the JSON result")
}

// runOneShot executes a single query and prints the result to stdout. The
// spinner goes to stderr so piped output stays clean.
func runOneShot(ctx context.Context, sess *session, q string) error {
	format := flagQueryOutput
	if format == "" {
		if flagJSON {
			format = "json"
		} else {
			format = "table"
		}
	}
	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (expected table, json, or yaml)", format)
	}
	if flagQueryFilter != "" && format == "table" {
		return fmt.Errorf("--filter requires JSON or YAML output")
	}

	logger, err := logging.New()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var spinner *pterm.SpinnerPrinter
	if isTTY(os.Stderr) {
		spinner, _ = pterm.DefaultSpinner.WithWriter(os.Stderr).Start("Running query")
	}

	start := time.Now()
	resp, err := sess.client().Query(ctx, q)
	elapsed := time.Since(start)
	if spinner != nil {
		spinner.Stop()
	}
	recordOneShot(logger, resp, err, elapsed)
	if err != nil {
		return err
	}

	out, err := formatOneShot(resp, format, flagQueryFilter)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func formatOneShot(resp *query.Response, format, filter string) (string, error) {
	if format == "table" {
		return query.FormatResponse(resp, false)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}

	// Plain JSON prints the modeled response as-is: field order and the
	// service's numeric text must survive into the output.
	if format == "json" && filter == "" {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return "", err
		}
		return pretty.String(), nil
	}

	// A filter or YAML output needs a generic document. UseNumber keeps
	// integer text from collapsing into float64 on the way through.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", err
	}

	if filter != "" {
		doc, err = jmespath.Search(filter, doc)
		if err != nil {
			return "", fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	if format == "yaml" {
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(out), "\n"), nil
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// recordOneShot logs one entry to the stats database. Recording is
// best-effort; failures only surface in the debug log.
func recordOneShot(logger *zap.Logger, resp *query.Response, err error, elapsed time.Duration) {
	dbPath, pathErr := config.StatsDBPath()
	if pathErr != nil {
		logger.Debug("stats recording unavailable", zap.Error(pathErr))
		return
	}
	manager, openErr := stats.NewManager(dbPath)
	if openErr != nil {
		logger.Debug("stats recording unavailable", zap.Error(openErr))
		return
	}
	defer manager.Close()

	entry := stats.Entry{DurationMs: elapsed.Milliseconds(), OK: err == nil}
	if resp != nil {
		entry.Rows = len(resp.Data)
	}
	if err != nil {
		entry.ErrorKind = err.Error()
	}
	if saveErr := manager.Save(entry); saveErr != nil {
		logger.Debug("stats save failed", zap.Error(saveErr))
	}
}

// runShell starts the interactive query terminal.
func runShell(sess *session) error {
	logger, err := logging.New()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var recorder shell.Recorder
	if dbPath, err := config.StatsDBPath(); err != nil {
		logger.Debug("stats recording unavailable", zap.Error(err))
	} else if manager, err := stats.NewManager(dbPath); err != nil {
		logger.Debug("stats recording unavailable", zap.Error(err))
	} else {
		defer manager.Close()
		recorder = statsRecorder{manager}
	}

	return shell.Run(shell.Options{
		JSONOutput: flagJSON,
		Dispatcher: sess.client(),
		Recorder:   recorder,
		Logger:     logger,
	})
}

// statsRecorder adapts the stats manager to the shell's Recorder. Recording
// is best-effort; a write failure never disturbs the session.
type statsRecorder struct {
	manager *stats.Manager
}

func (r statsRecorder) Record(stat shell.QueryStat) {
	entry := stats.Entry{
		DurationMs: stat.Duration.Milliseconds(),
		Rows:       stat.Rows,
		OK:         stat.Err == nil,
	}
	if stat.Err != nil {
		entry.ErrorKind = stat.Err.Error()
	}
	_ = r.manager.Save(entry)
}
