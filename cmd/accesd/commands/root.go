package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("nothing to do: use --list-accounts, --account or --influxdb")

type rootOptions struct {
	listAccounts bool
	account      string
	influx       bool
	table        bool
	logLevel     string
	logHTML      bool
	logDir       string
	start        string
	end          string
	outputDir    string
	recordHAR    string
	challenge    string
	timeout      time.Duration
	envFile      string

	// test hook applied to the session options after the defaults
	session func(*session.Options)
}

// NewRootCmd builds the accesd command. sessionHooks adjust the HTTP
// session before it is created.
func NewRootCmd(sessionHooks ...func(*session.Options)) *cobra.Command {
	opts := &rootOptions{
		session: func(o *session.Options) {
			for _, hook := range sessionHooks {
				hook(o)
			}
		},
	}

	cmd := &cobra.Command{
		Use:   "accesd",
		Short: "accesd logs into Desjardins AccèsD to list accounts, export balances and download OFX statements.",
		Long: `accesd logs into Desjardins AccèsD with the credentials found in the
environment (DESJARDINS_NUMBER, DESJARDINS_PASSWORD, DESJARDINS_SECURE_PHRASE,
DESJARDINS_QUESTIONS) or in a .env file, then either prints the balances in
InfluxDB line protocol, lists the accounts that can be exported, or downloads
the OFX statement of one of them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.listAccounts, "list-accounts", "l", false, "List the accounts that can be downloaded.")
	f.StringVarP(&opts.account, "account", "a", "", "Download the OFX statement of this account key (see --list-accounts).")
	f.BoolVarP(&opts.influx, "influxdb", "i", false, "Print account balances in InfluxDB line protocol.")
	f.BoolVarP(&opts.table, "table", "t", false, "With --influxdb, print a table instead.")
	f.StringVarP(&opts.logLevel, "log-level", "L", "fatal", "Log level (debug, info, warning, error, fatal).")
	f.BoolVarP(&opts.logHTML, "log-html", "H", false, "Write every page received to the dump directory.")
	f.StringVar(&opts.logDir, "log-dir", "", "Also write JSON logs to a rotated file in this directory.")
	f.StringVar(&opts.start, "start", "", "First day of the statement (YYYY-MM-DD).")
	f.StringVar(&opts.end, "end", "", "Last day of the statement (YYYY-MM-DD).")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory where statements are saved (default DESJARDINS_OUTPUT_DIR or the temp dir).")
	f.StringVar(&opts.recordHAR, "record-har", "", "Record the sanitized exchanges of the run to this HAR file.")
	f.StringVar(&opts.challenge, "challenge", "", "Security question handling: detect, always or never (default DESJARDINS_CHALLENGE or detect).")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Abort the whole run after this long.")
	f.StringVar(&opts.envFile, "env-file", "", "Read settings from this file (default .env when present).")

	return cmd
}

// ExecuteContext runs the command and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return bank.ExitCode(err)
	}
	return bank.ExitOK
}

func parsePeriod(start, end string) (bank.DateRange, error) {
	if start == "" && end == "" {
		return bank.DateRange{}, nil
	}
	if start == "" || end == "" {
		return bank.DateRange{}, errors.New("--start and --end go together")
	}

	var r bank.DateRange
	var err error
	if r.Start, err = time.ParseInLocation(dateLayout, start, time.Local); err != nil {
		return bank.DateRange{}, fmt.Errorf("--start: %w", err)
	}
	if r.End, err = time.ParseInLocation(dateLayout, end, time.Local); err != nil {
		return bank.DateRange{}, fmt.Errorf("--end: %w", err)
	}
	if r.End.Before(r.Start) {
		return bank.DateRange{}, fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return r, nil
}
