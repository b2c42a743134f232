// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/ctverify"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/posix"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/logger"
)

var (
	// OperationPerformed reports whether a command ran past flag parsing.
	OperationPerformed bool
	// OperationPerformedSuccessfully reports whether that command succeeded.
	OperationPerformedSuccessfully bool
)

var (
	// ErrInputRequired indicates neither a host nor --file was given.
	ErrInputRequired = errors.New("a host argument or --file is required")

	// ErrNoDistributorKey indicates no key was configured to verify the log list.
	ErrNoDistributorKey = errors.New("no log list distributor key configured (--distributor-key or " + DistributorKeyEnv + ")")
)

// app carries what every subcommand shares.
type app struct {
	version string
	log     logger.Logger

	configPath     string
	printMetrics   bool
	logLevel       string
	logFormat      string
	logFile        string
	logListURL     string
	distributorKey string
	cacheDir       string
	anchorsFile    string

	cfg  *Config
	slog *logger.StructuredLogger
	http *x509chain.HTTPConfig
}

// Execute runs the root command with os.Args, handling any errors that
// occur during execution.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewRootCommand(version, log).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Output goes to the command's
// writers; log receives progress and warnings.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	OperationPerformed = false
	OperationPerformedSuccessfully = false
	if log == nil {
		log = logger.NewCLILogger()
	}
	a := &app{version: version, log: log}

	rootCmd := &cobra.Command{
		Use:               posix.ExecutableName("ct-verifier"),
		Short:             "Certificate Transparency verifier for TLS servers",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (JSON or YAML), defaults to $"+ConfigFileEnv)
	flags.BoolVar(&a.printMetrics, "metrics", false, "print metrics in Prometheus text format when done")
	flags.StringVar(&a.logLevel, "log-level", "", "structured log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "structured log format (json or text)")
	flags.StringVar(&a.logFile, "log-file", "", "write structured logs to a rotating file")
	flags.StringVar(&a.logListURL, "loglist-url", "", "log list distributor base URL")
	flags.StringVar(&a.distributorKey, "distributor-key", "", "PEM public key verifying the log list")
	flags.StringVar(&a.cacheDir, "cache-dir", "", "directory caching the log list on disk")
	flags.StringVar(&a.anchorsFile, "anchors", "", "PEM bundle of trust anchors replacing the system roots")

	rootCmd.AddCommand(
		a.verifyCommand(),
		a.logListCommand(),
		a.sthCommand(),
		a.submitCommand(),
		a.entriesCommand(),
		a.rootsCommand(),
	)
	return rootCmd
}

// setup loads the config, applies flag overrides and opens the structured logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	override := func(dst *string, flag string) {
		if flag != "" {
			*dst = flag
		}
	}
	override(&cfg.Log.Level, a.logLevel)
	override(&cfg.Log.Format, a.logFormat)
	override(&cfg.Log.File, a.logFile)
	override(&cfg.LogList.URL, a.logListURL)
	override(&cfg.LogList.DistributorKey, a.distributorKey)
	override(&cfg.LogList.CacheDir, a.cacheDir)
	override(&cfg.Verifier.TrustAnchors, a.anchorsFile)
	a.cfg = cfg

	a.slog, err = logger.NewStructuredLogger(cfg.Log, "ct-verifier", a.version)
	if err != nil {
		return err
	}
	if cfg.Log.File == "" {
		a.slog.SetOutput(cmd.ErrOrStderr())
	}

	a.http = x509chain.NewHTTPConfig(a.version)
	a.http.Timeout = a.timeout()
	OperationPerformed = true
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	OperationPerformedSuccessfully = true
	if a.printMetrics {
		if err := metrics.Default.WriteText(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if a.slog != nil {
		return a.slog.Close()
	}
	return nil
}

func (a *app) timeout() time.Duration {
	return time.Duration(a.cfg.Verifier.Timeout) * time.Second
}

// decodeFile decodes every certificate in a PEM, DER or PKCS#7 file.
func decodeFile(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return certs, nil
}

// verifier builds a Verifier from the loaded configuration.
func (a *app) verifier(extra ...ctverify.Option) (*ctverify.Verifier, error) {
	cfg := a.cfg
	if cfg.LogList.DistributorKey == "" {
		return nil, ErrNoDistributorKey
	}
	keyPEM, err := os.ReadFile(cfg.LogList.DistributorKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read distributor key: %w", err)
	}

	opts := []ctverify.Option{
		ctverify.WithDistributorKeyPEM(keyPEM),
		ctverify.WithLogListURL(cfg.LogList.URL),
		ctverify.WithDiskCache(cfg.LogList.CacheDir),
		ctverify.WithHTTPConfig(a.http),
		ctverify.WithTimeout(a.timeout()),
		ctverify.WithStructuredLogger(a.slog.Logger),
	}
	if len(cfg.Verifier.Hosts) > 0 {
		opts = append(opts, ctverify.WithHosts(cfg.Verifier.Hosts...))
	}
	if len(cfg.Verifier.ExcludeHosts) > 0 {
		opts = append(opts, ctverify.WithExcludedHosts(cfg.Verifier.ExcludeHosts...))
	}
	if cfg.Verifier.TrustAnchors != "" {
		anchors, err := decodeFile(cfg.Verifier.TrustAnchors)
		if err != nil {
			return nil, fmt.Errorf("failed to load trust anchors: %w", err)
		}
		opts = append(opts, ctverify.WithTrustAnchors(anchors...))
	}
	return ctverify.New(append(opts, extra...)...)
}
