package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/grez-lucas/accesd-scraper/internal/config"
	"github.com/grez-lucas/accesd-scraper/internal/export"
	"github.com/grez-lucas/accesd-scraper/internal/logging"
	"github.com/grez-lucas/accesd-scraper/internal/report"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank/desjardins"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

func run(cmd *cobra.Command, opts *rootOptions) error {
	if !opts.listAccounts && opts.account == "" && !opts.influx {
		return errUsage
	}
	period, err := parsePeriod(opts.start, opts.end)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	var files []io.Writer
	if opts.logDir != "" {
		file, err := logging.File(opts.logDir)
		if err != nil {
			return err
		}
		defer file.Close()
		files = append(files, file)
	}
	log := logging.New(level, cmd.ErrOrStderr(), files...).
		With().Str("run", uuid.NewString()).Logger()

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.challenge != "" {
		if cfg.ChallengeMode, err = desjardins.ParseChallengeMode(opts.challenge); err != nil {
			return err
		}
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	sessOpts := session.Options{Logger: log}
	if opts.logHTML {
		dump, err := session.NewFilesystemOutput(cfg.DumpDir, log)
		if err != nil {
			return err
		}
		sessOpts.Dump = dump
	}
	if opts.recordHAR != "" {
		recorder := har.NewRecorder()
		sessOpts.Recorder = recorder
		defer func() {
			if err := recorder.Save(opts.recordHAR); err != nil {
				log.Error().Err(err).Str("path", opts.recordHAR).Msg("saving HAR")
				return
			}
			log.Info().Str("path", opts.recordHAR).Msg("HAR saved")
		}()
	}
	opts.session(&sessOpts)

	sess, err := session.New(sessOpts)
	if err != nil {
		return err
	}
	scraper, err := desjardins.NewScraper(cfg.Credentials,
		desjardins.WithSession(sess),
		desjardins.WithChallengeMode(cfg.ChallengeMode),
		desjardins.WithLogger(log),
	)
	if err != nil {
		return err
	}

	if err := scraper.Login(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.influx {
		accounts, err := scraper.Accounts(ctx)
		if err != nil {
			return err
		}
		if opts.table {
			report.WriteTable(out, accounts)
			return nil
		}
		return report.WriteInflux(out, accounts)
	}

	catalog, err := scraper.ExportCatalog(ctx)
	if err != nil {
		return err
	}
	if opts.listAccounts {
		return report.WriteCatalog(out, catalog)
	}

	return download(ctx, scraper, catalog, opts.account, period, cfg.OutputDir, log, cmd)
}

func download(ctx context.Context, scraper bank.BankScraper, catalog *bank.Catalog, key string, period bank.DateRange, dir string, log zerolog.Logger, cmd *cobra.Command) error {
	body, used, err := scraper.Download(ctx, catalog, key, period)
	if err != nil {
		return err
	}

	path, err := export.Save(dir, key, used, body)
	if err != nil {
		return err
	}

	if summary, err := export.Summarize(body); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("statement saved but could not be read back as OFX")
	} else {
		for _, st := range summary.Statements {
			log.Info().
				Str("kind", string(st.Kind)).
				Str("account", st.Account).
				Int("transactions", st.Transactions).
				Str("balance", st.Balance.StringFixed(2)).
				Str("currency", st.Currency).
				Msg("statement")
		}
		log.Info().
			Str("path", path).
			Int("statements", len(summary.Statements)).
			Int("transactions", summary.Transactions()).
			Msg("statement file read back")
	}

	entry, _ := catalog.Lookup(key)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s saved in %s\n", entry.Label, path)
	return err
}
