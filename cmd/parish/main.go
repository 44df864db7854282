package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/terraincognita07/parish/internal/api"
	"github.com/terraincognita07/parish/internal/cli"
	"github.com/terraincognita07/parish/internal/config"
	"github.com/terraincognita07/parish/internal/db"
	"github.com/terraincognita07/parish/internal/logging"
	"github.com/terraincognita07/parish/internal/metrics"
	"github.com/terraincognita07/parish/internal/notify"
	"github.com/terraincognita07/parish/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "parish: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command, rest := splitCommand(args)
	switch command {
	case "serve":
		return serve()
	case "seed-admin":
		return seedAdmin(rest)
	case "reset-password":
		return resetPassword(rest)
	default:
		return fmt.Errorf("unknown command %q (want serve, seed-admin or reset-password)", command)
	}
}

func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || (len(args[0]) > 0 && args[0][0] == '-') {
		return "serve", args
	}
	return args[0], args[1:]
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	time.Local = cfg.Location
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close(database)

	sessions, err := session.NewIssuer([]byte(cfg.SecretKey), cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("session init failed: %w", err)
	}

	sender, err := buildSender(cfg.Mail, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflow := metrics.NewWorkflow(registry)

	handler, err := api.NewHandler(database, sessions, api.HandlerOptions{
		FrontendURL: cfg.FrontendURL,
		TokenTTL:    cfg.InviteTokenTTL,
		Notifier:    notify.NewMailer(sender, cfg.Mail.FromName, cfg.InviteTokenTTL),
		Recorder:    workflow,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := api.NewApp(handler, api.AppConfig{
		AllowOrigins: cfg.FrontendURL,
		AccessLog:    os.Stdout,
		Logger:       logger,
	})
	app.Get("/metrics", metrics.Handler(registry))

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}()

	logger.Info("parish listening",
		slog.String("addr", "0.0.0.0:"+cfg.Port),
		slog.String("db", cfg.DBPath),
		slog.Bool("smtp", cfg.Mail.Enabled()),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func buildSender(cfg config.Mail, logger *slog.Logger) (notify.Sender, error) {
	if !cfg.Enabled() {
		logger.Warn("MAIL_HOST not set, e-mails will only be logged")
		return notify.NewLogSender(logger), nil
	}

	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  cfg.Password,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	})
	if err != nil {
		return nil, fmt.Errorf("mail init failed: %w", err)
	}
	return sender, nil
}

func seedAdmin(args []string) error {
	operator, err := config.LoadOperator()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	dbPath := flags.String("db", operator.DBPath, "path to the sqlite database")
	email := flags.String("email", "", "administrator email")
	firstName := flags.String("first", "", "administrator first name")
	lastName := flags.String("last", "", "administrator last name")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	return cli.RunSeedAdminCommand(context.Background(), *dbPath, cli.SeedAdminOptions{
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
	}, cli.TerminalPasswordPrompt(os.Stdin, os.Stdout), os.Stdout)
}

func resetPassword(args []string) error {
	operator, err := config.LoadOperator()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	dbPath := flags.String("db", operator.DBPath, "path to the sqlite database")
	email := flags.String("email", "", "email of the user to reset")
	if err := flags.Parse(args); err != nil {
		return err
	}

	return cli.RunResetPasswordCommand(context.Background(), *dbPath, cli.ResetPasswordOptions{
		Email:       *email,
		FrontendURL: operator.FrontendURL,
		TokenTTL:    operator.InviteTokenTTL,
	}, os.Stdout)
}
