package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/cmd"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/dukex/dailygate/pkg/eventlog"
	"github.com/dukex/dailygate/pkg/log"
	"github.com/dukex/dailygate/pkg/mailer"
	"github.com/dukex/dailygate/pkg/otelhelper"
	"github.com/dukex/dailygate/pkg/runner"
	"github.com/dukex/dailygate/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8000

func main() {
	root := &cli.Command{
		Name:                  "dailygate",
		Usage:                 "Daily-code gated workflow service",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			apiCommand(),
			generateCodeCommand(),
			sweepCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Storage URL (file://./data or redis://host:6379)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:     "users-file",
			Usage:    "Path to the identity directory JSON file",
			Required: true,
			Sources:  cli.EnvVars("USERS_FILE"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func mailFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP relay host (empty disables mail delivery)",
			Sources: cli.EnvVars("MAIL_SERVER"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Usage:   "SMTP relay port",
			Value:   587,
			Sources: cli.EnvVars("MAIL_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.EnvVars("MAIL_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.EnvVars("MAIL_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Mail From address",
			Sources: cli.EnvVars("MAIL_FROM"),
		},
	}
}

func apiCommand() *cli.Command {
	flags := append(commonFlags(), mailFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus provider (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "llm-api-key",
			Usage:   "API key for the chat-completions endpoint",
			Sources: cli.EnvVars("QWEN_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "llm-base-url",
			Usage:   "Base URL of the chat-completions endpoint",
			Value:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Sources: cli.EnvVars("QWEN_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "llm-model",
			Usage:   "Model name for poem generation",
			Value:   "qwen-turbo",
			Sources: cli.EnvVars("QWEN_MODEL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Enable OTLP trace export",
			Sources: cli.EnvVars("ENABLE_TRACING"),
		},
	)

	return &cli.Command{
		Name:  "api",
		Usage: "Run the authenticated workflow API server",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Dailygate API")

			settings, err := buildSettings(command)
			if err != nil {
				return err
			}

			users, err := config.LoadUsers(command.String("users-file"))
			if err != nil {
				return err
			}

			store := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := eventlog.Register(eventBus, logger); err != nil {
				return fmt.Errorf("failed to register event handlers: %w", err)
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			var mail mailer.Sender
			if settings.MailEnabled() {
				mail = mailer.NewSMTPSender(settings.SMTP, logger)
			} else {
				mail = mailer.NewNoop(logger)
			}

			authService := auth.NewService(store, users, mail, eventBus, logger)

			reg := cmd.NewRegistry(settings.LLM, logger)

			workflowRunner := runner.NewRunner(reg, store, eventBus, logger)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "dailygate-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}

				workflowRunner.WithTracer(tracer)
			}

			sched := scheduler.NewScheduler(authService, users, logger)
			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := sched.Stop(stopCtx); err != nil {
					logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
				}
			}()

			api := NewAPI(logger, store, reg, workflowRunner, authService, users, eventBus)

			return api.Start(command.Int("port"))
		},
	}
}

func generateCodeCommand() *cli.Command {
	flags := append(commonFlags(), mailFlags()...)
	flags = append(flags, &cli.StringFlag{
		Name:    "identity",
		Usage:   "Issue for a single identity (default: all enabled identities)",
		Sources: cli.EnvVars("IDENTITY"),
	})

	return &cli.Command{
		Name:  "generate-code",
		Usage: "Issue today's access codes",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("generate-code")

			settings, err := buildSettings(command)
			if err != nil {
				return err
			}

			users, err := config.LoadUsers(command.String("users-file"))
			if err != nil {
				return err
			}

			store := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var mail mailer.Sender
			if settings.MailEnabled() {
				mail = mailer.NewSMTPSender(settings.SMTP, logger)
			} else {
				mail = mailer.NewNoop(logger)
			}

			authService := auth.NewService(store, users, mail, nil, logger)

			identities := users.EnabledIdentities()
			if identity := command.String("identity"); identity != "" {
				identities = []string{identity}
			}

			for _, identity := range identities {
				code, created, err := authService.IssueDailyCode(ctx, identity)
				if err != nil {
					return fmt.Errorf("failed to issue code for %s: %w", identity, err)
				}

				fmt.Printf("%s\t%s\t%s\tcreated=%t\n", identity, code.Date, code.Code, created)
			}

			return nil
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove expired daily codes and bearer tokens",
		Flags: commonFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("sweep")

			users, err := config.LoadUsers(command.String("users-file"))
			if err != nil {
				return err
			}

			store := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			authService := auth.NewService(store, users, nil, nil, logger)

			codes, tokens, err := authService.Sweep(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("removed %d codes, %d tokens\n", codes, tokens)

			return nil
		},
	}
}

func buildSettings(command *cli.Command) (config.Settings, error) {
	settings := config.DefaultSettings()

	settings.SMTP.Host = command.String("smtp-host")
	settings.SMTP.Port = command.Int("smtp-port")
	settings.SMTP.Username = command.String("smtp-username")
	settings.SMTP.Password = command.String("smtp-password")
	settings.SMTP.From = command.String("smtp-from")

	if command.String("llm-base-url") != "" {
		settings.LLM.BaseURL = command.String("llm-base-url")
	}

	if command.String("llm-model") != "" {
		settings.LLM.Model = command.String("llm-model")
	}

	settings.LLM.APIKey = command.String("llm-api-key")

	if err := settings.Validate(); err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return settings, nil
}
