package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/expensesplit/internal/adapter/api"
	"github.com/iho/expensesplit/internal/adapter/http/dto"
	"github.com/iho/expensesplit/internal/adapter/repository/memory"
	redisRepo "github.com/iho/expensesplit/internal/adapter/repository/redis"
	"github.com/iho/expensesplit/internal/domain"
	"github.com/iho/expensesplit/internal/infrastructure/config"
	"github.com/iho/expensesplit/internal/infrastructure/logger"
	"github.com/iho/expensesplit/internal/infrastructure/redis"
	"github.com/iho/expensesplit/internal/usecase"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	descriptionWidth = 40
)

var (
	errMissingTransaction = errors.New("either --key or --date with --amount is required")
	errEphemeralStore     = errors.New("local mode needs a persistent store: use --store redis")
)

type options struct {
	cfg    *config.Config
	output string
}

// app holds the use cases a command runs against.
type app struct {
	transactions *usecase.TransactionsUseCase
	health       *usecase.HealthQuery
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:          "expensesplit-cli",
		Short:        "Expense split CLI tool",
		Long:         `A command line interface for deciding who paid for each card transaction.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("invalid output %q: must be %s or %s", opts.output, outputTable, outputJSON)
			}
			// Each invocation is a fresh process, so an in-memory store would forget every assignment.
			if opts.cfg.SelectionMode == config.SelectionModeLocal && opts.cfg.SelectionStore == config.StoreMemory {
				return errEphemeralStore
			}
			return opts.cfg.Validate()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.APIBaseURL, "url", cfg.APIBaseURL, "Base URL of the transactions API")
	flags.DurationVar(&cfg.APITimeout, "timeout", cfg.APITimeout, "Request timeout")
	flags.StringVar(&cfg.SelectionMode, "mode", cfg.SelectionMode, "Selection persistence: local or remote")
	flags.StringVar(&cfg.SelectionStore, "store", cfg.SelectionStore, "Selection store for local mode: redis (memory is not kept between runs)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")

	transactionsCmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}
	transactionsCmd.AddCommand(listCmd(opts), assignCmd(opts))

	rootCmd.AddCommand(transactionsCmd, healthCmd(opts), keyCmd())

	return rootCmd
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: stderr})

	var (
		store usecase.SelectionStore
		closeFn = func() {}
	)
	switch cfg.SelectionStore {
	case config.StoreRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisRepo.NewSelectionStore(client, nil)
		closeFn = func() { client.Close() }
	case config.StoreMemory:
		store = memory.NewSelectionStore()
	default:
		return nil, fmt.Errorf("selection store %q is not supported by the cli", cfg.SelectionStore)
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  log,
	})

	query := usecase.NewTransactionQuery(usecase.TransactionQueryConfig{
		API:          client,
		StaleTime:    cfg.QueryStaleTime,
		Retries:      cfg.QueryRetries,
		RetryDelay:   cfg.QueryRetryDelay,
		FetchTimeout: cfg.QueryFetchTimeout,
		Logger:       log,
	})
	selections := usecase.NewSelectionUseCase(usecase.SelectionConfig{
		Mode:   usecase.SelectionMode(cfg.SelectionMode),
		Store:  store,
		API:    client,
		Query:  query,
		Logger: log,
	})

	return &app{
		transactions: usecase.NewTransactionsUseCase(query, selections),
		health:       usecase.NewHealthQuery(client, cfg.QueryRetryDelay, log),
		close:        closeFn,
	}, nil
}

func periodFlags(cmd *cobra.Command, year, month *int) {
	now := time.Now()
	cmd.Flags().IntVar(year, "year", now.Year(), "Year of the transactions")
	cmd.Flags().IntVar(month, "month", int(now.Month()), "Month of the transactions (1-12)")
}

func listCmd(opts *options) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the transactions of a month with their payers",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := domain.NewTransactionPeriod(year, month)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			view := a.transactions.Month(cmd.Context(), period, true)
			if view.Error != "" {
				return errors.New(view.Error)
			}

			return render(cmd.OutOrStdout(), opts.output, view)
		},
	}
	periodFlags(cmd, &year, &month)

	return cmd
}

func assignCmd(opts *options) *cobra.Command {
	var (
		year, month int
		key, date   string
		amount      string
		paidBy      string
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Set who paid for a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := domain.NewTransactionPeriod(year, month)
			if err != nil {
				return err
			}

			value, err := domain.ParsePaidBy(paidBy)
			if err != nil {
				return err
			}

			input := usecase.AssignInput{Key: key, Date: date, PaidBy: value}
			if key == "" {
				if date == "" || amount == "" {
					return errMissingTransaction
				}
				input.Amount, err = decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", amount, err)
				}
			}

			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			view, err := a.transactions.Assign(cmd.Context(), period, input)
			if err != nil {
				if errors.Is(err, domain.ErrSelectionSaveFailed) {
					return fmt.Errorf("%s: %w", view.SelectionError, err)
				}
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, view)
		},
	}
	periodFlags(cmd, &year, &month)
	cmd.Flags().StringVar(&key, "key", "", "Storage key of the transaction")
	cmd.Flags().StringVar(&date, "date", "", "Transaction date (DD/MM/YYYY)")
	cmd.Flags().StringVar(&amount, "amount", "", "Transaction amount")
	cmd.Flags().StringVar(&paidBy, "paid-by", "", "Roland, Split or Chris")
	_ = cmd.MarkFlagRequired("paid-by")
	cmd.MarkFlagsMutuallyExclusive("key", "date")

	return cmd
}

func healthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the transactions API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			status, err := a.health.Check(cmd.Context())
			if err != nil {
				return err
			}

			if opts.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), dto.UpstreamHealthResponse{Status: status})
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func keyCmd() *cobra.Command {
	var date, amount string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the storage key for a date and amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			id, err := domain.IdentifierFromTransaction(date, value)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), domain.GenerateStorageKey(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Transaction date (DD/MM/YYYY)")
	cmd.Flags().StringVar(&amount, "amount", "", "Transaction amount")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func render(w io.Writer, output string, view usecase.MonthView) error {
	if output == outputJSON {
		return printJSON(w, dto.MonthFromView(view))
	}
	return printMonth(w, view)
}

func printMonth(w io.Writer, view usecase.MonthView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCARD MEMBER\tAMOUNT\tPAID BY")
	for _, tx := range view.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			tx.Date,
			truncate(tx.Description, descriptionWidth),
			tx.CardMember,
			signedAmount(tx.Amount),
			tx.Selection,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s: %d transactions\n", view.Period, len(view.Transactions))

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%s\n", signedAmount(view.Totals.Total))
	fmt.Fprintf(tw, "%s\t%s\n", domain.PaidByRoland, signedAmount(view.Totals.PayerA))
	fmt.Fprintf(tw, "%s\t%s\n", domain.PaidByChris, signedAmount(view.Totals.PayerB))
	return tw.Flush()
}

func signedAmount(d decimal.Decimal) string {
	display, sign := domain.FormatAmount(d)
	if sign == domain.SignDebit {
		return "-" + display
	}
	return display
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
