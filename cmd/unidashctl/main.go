// unidashctl is the operator CLI for the dashboard service. It talks
// to the database directly, sharing the ingestion pipeline with the
// HTTP server:
//
//	unidashctl check <data_type> <file.csv>    parse and validate only, no database
//	unidashctl import <data_type> <file.csv>   run the full ingestion pipeline
//	unidashctl history [-n 20]                 show recent upload attempts
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/unidash/unidash/internal/config"
	"github.com/unidash/unidash/internal/ingest"
	"github.com/unidash/unidash/internal/store"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "check":
		err = runCheck(args[1:])
	case "import":
		err = runImport(args[1:])
	case "history":
		err = runHistory(args[1:])
	case "reset":
		err = runReset(args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		failColor.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  unidashctl check <data_type> <file.csv>
  unidashctl import <data_type> <file.csv>
  unidashctl history [-n 20]
  unidashctl reset <data_type>|all

data_type is one of: department_kpi, publication, research_project, student_roster`)
}

// runCheck parses and validates a file without touching the database.
func runCheck(args []string) error {
	kind, data, name, err := loadFile(args)
	if err != nil {
		return err
	}

	batch, err := ingest.ParseBatch(kind, data)
	if err != nil {
		failColor.Printf("%s: rejected during parsing\n", name)
		fmt.Println("  " + err.Error())
		os.Exit(1)
	}

	outcome := ingest.Validate(batch)
	if !outcome.Valid {
		failColor.Printf("%s: rejected during validation\n", name)
		printViolations(outcome)
		os.Exit(1)
	}

	okColor.Printf("%s: %d rows OK\n", name, batch.Len())
	return nil
}

// runImport runs the full pipeline against the configured database.
func runImport(args []string) error {
	kind, data, name, err := loadFile(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := ingest.New(st, st, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	result, err := pipeline.Ingest(ctx, kind, name, bytes.NewReader(data))
	if err != nil {
		return err
	}

	if !result.Success {
		failColor.Printf("%s: rejected during %s\n", name, result.FailedStage)
		for _, msg := range result.Errors {
			fmt.Println("  " + msg)
		}
		os.Exit(1)
	}

	okColor.Printf("%s: imported %d rows\n", name, result.RowsProcessed)
	return nil
}

// runHistory prints recent upload attempts as a table.
func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of attempts to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	st, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	uploads, total, err := st.ListHistory(ctx, 1, *limit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Filename", "Type", "Status", "Rows", "Uploaded"})
	table.SetBorder(false)
	for _, u := range uploads {
		status := u.Status
		switch status {
		case ingest.StatusSuccess:
			status = okColor.Sprint(status)
		case ingest.StatusFailed:
			status = failColor.Sprint(status)
		default:
			status = warnColor.Sprint(status)
		}
		table.Append([]string{
			strconv.FormatInt(u.ID, 10),
			u.Filename,
			u.DataType,
			status,
			strconv.Itoa(u.RowsProcessed),
			u.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	fmt.Printf("showing %d of %d attempts\n", len(uploads), total)
	return nil
}

// runReset truncates stored data. "all" clears every kind plus the
// upload history.
func runReset(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected <data_type> or all")
	}

	ctx := context.Background()
	st, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if args[0] == "all" {
		if err := st.ResetAll(ctx); err != nil {
			return err
		}
		warnColor.Println("all data and upload history cleared")
		return nil
	}

	kind, err := ingest.ParseKind(args[0])
	if err != nil {
		return err
	}
	if err := st.ResetKind(ctx, kind); err != nil {
		return err
	}
	warnColor.Printf("%s data cleared\n", kind)
	return nil
}

// loadFile resolves the kind and file arguments shared by check and import.
func loadFile(args []string) (ingest.Kind, []byte, string, error) {
	if len(args) != 2 {
		return "", nil, "", fmt.Errorf("expected <data_type> <file.csv>")
	}
	kind, err := ingest.ParseKind(args[0])
	if err != nil {
		return "", nil, "", err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return "", nil, "", err
	}
	return kind, data, filepath.Base(args[1]), nil
}

// openStore connects to the database from the environment.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store.New(pool), pool.Close, nil
}

func printViolations(outcome ingest.Outcome) {
	for _, msg := range outcome.Messages() {
		fmt.Println("  " + msg)
	}
}
