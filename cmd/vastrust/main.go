/**
 * @description
 * This is the entry point for the vastrust CLI, a terminal front end over the
 * banking client library. Each subcommand wires the shared stack: viper
 * configuration, the SQLite-backed key-value store, the typed API client, the
 * session store and the step-up reveal gate.
 *
 * @dependencies
 * - github.com/spf13/cobra: Command tree and flag parsing.
 * - golang.org/x/term: Hidden password and PIN prompts.
 */

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vastrust/banking-client/internal/config"
	"github.com/vastrust/banking-client/internal/logging"
	"github.com/vastrust/banking-client/internal/reveal"
	"github.com/vastrust/banking-client/internal/session"
	"github.com/vastrust/banking-client/internal/store"
	"github.com/vastrust/banking-client/pkg/bankclient"
)

const version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vastrust",
		Short:         "Vastrust mobile banking client",
		Long:          "Terminal client for the Vastrust banking API: login, balances, transactions and transfers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		profileCmd(),
		balanceCmd(),
		transactionsCmd(),
		transferCmd(),
		verifyEmailCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("vastrust version %s\n", version)
			},
		},
	)
	return cmd
}

// app bundles the wired stack behind every subcommand.
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	kv      *store.SQLiteStore
	client  *bankclient.Client
	session *session.Store
	gate    *reveal.Gate
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	kv, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client := bankclient.NewClient(bankclient.Config{
		BaseURL:  cfg.APIBaseURL,
		Username: cfg.APIUser,
		Password: cfg.APIPassword,
		Timeout:  time.Duration(cfg.RequestTimeout) * time.Second,
	}, bankclient.WithLogger(logger))

	return &app{
		cfg:     cfg,
		logger:  logger,
		kv:      kv,
		client:  client,
		session: session.NewStore(kv, client, session.WithLogger(logger)),
		gate:    reveal.NewGate(client, reveal.WithLogger(logger)),
	}, nil
}

func (a *app) Close() {
	a.kv.Close()
	a.logger.Sync()
}

// promptSecret reads a line without echo when stdin is a terminal, falling
// back to a plain read when it is not (piped input in scripts and tests).
func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(raw), nil
	}
	return promptLine("")
}

// promptLine reads one line from stdin.
func promptLine(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(os.Stderr, "%s: ", label)
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
