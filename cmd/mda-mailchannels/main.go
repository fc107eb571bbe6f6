// Package main is the entry point for the MailChannels MDA filter: it reads
// one complete raw message from stdin, transforms it, and submits it to the
// configured delivery provider exactly once.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/shineum/mda-mailchannels/internal/config"
	"github.com/shineum/mda-mailchannels/internal/dkim"
	"github.com/shineum/mda-mailchannels/internal/parser"
	"github.com/shineum/mda-mailchannels/internal/provider"
	"github.com/shineum/mda-mailchannels/internal/provider/mailchannels"
	"github.com/shineum/mda-mailchannels/internal/provider/ses"
	"github.com/shineum/mda-mailchannels/internal/provider/stdout"
)

// Exit codes follow sysexits conventions so the calling MTA can tell
// configuration trouble from message trouble.
const (
	exitData   = 65 // EX_DATAERR: message failed parsing or validation
	exitSend   = 69 // EX_UNAVAILABLE: delivery attempt failed
	exitIOErr  = 74 // EX_IOERR: could not read the message
	exitConfig = 78 // EX_CONFIG: unusable configuration
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(exitConfig)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Read the complete message from stdin
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		slog.Error("failed to read message from stdin", "error", err)
		os.Exit(exitIOErr)
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		slog.Error("failed to parse message", "error", err)
		os.Exit(exitData)
	}

	// Select delivery provider
	prov := selectProvider(cfg)

	slog.Debug("starting delivery",
		"provider", prov.Name(),
		"message_bytes", len(raw),
	)

	// One attempt, no retry: the MTA owns requeueing policy.
	if err := prov.Send(context.Background(), msg); err != nil {
		slog.Error("delivery failed",
			"provider", prov.Name(),
			"error", err,
		)
		os.Exit(sendExitCode(err))
	}

	slog.Info("message handed off", "provider", prov.Name())
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level. Logs go to stderr: stdout is reserved for the stdout
// provider's rendering of the message.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery backend based on configuration.
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "mailchannels":
		if !cfg.MailChannelsConfigured() {
			slog.Error("mailchannels provider selected but MDA_MAILCHANNELS_API_KEY and MDA_MAILCHANNELS_DKIM_SELECTOR are required")
			os.Exit(exitConfig)
		}
		return mailchannels.New(mailchannels.ClientConfig{
			APIKey:        cfg.MailChannels.APIKey,
			Selector:      cfg.MailChannels.DKIMSelector,
			Keys:          dkim.NewKeyDir(cfg.MailChannels.DKIMKeyDir),
			Endpoint:      cfg.MailChannels.Endpoint,
			Transactional: cfg.MailChannels.Transactional,
			ClickTracking: cfg.MailChannels.ClickTracking,
			OpenTracking:  cfg.MailChannels.OpenTracking,
		})

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("ses provider selected but SES_REGION is required")
			os.Exit(exitConfig)
		}
		p, err := ses.New(context.Background(), ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			slog.Error("failed to create SES provider", "error", err)
			os.Exit(exitConfig)
		}
		return p

	case "stdout":
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(exitConfig)
		return nil
	}
}

// sendExitCode classifies a delivery error into an exit code: message
// defects exit EX_DATAERR, missing or broken key material EX_CONFIG,
// everything else (transport, API rejection) EX_UNAVAILABLE.
func sendExitCode(err error) int {
	switch {
	case errors.Is(err, mailchannels.ErrInvalidFrom),
		errors.Is(err, mailchannels.ErrNoSenderDomain),
		errors.Is(err, mailchannels.ErrMissingHeader),
		errors.Is(err, mailchannels.ErrTooManyHeaders),
		errors.Is(err, mailchannels.ErrAttachmentIssue),
		errors.Is(err, mailchannels.ErrInvalidUTF8):
		return exitData
	case errors.Is(err, dkim.ErrNoKeyForDomain),
		errors.Is(err, dkim.ErrKeyDecode),
		errors.Is(err, mailchannels.ErrMalformedHeaderValue):
		return exitConfig
	default:
		return exitSend
	}
}
