package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"basebot/handler"
	"basebot/internal/bot"
	"basebot/internal/config"
	"basebot/internal/integrations/groq"
	"basebot/internal/integrations/paramstore"
	"basebot/internal/integrations/telegram"
	"basebot/internal/logger"
	"basebot/internal/repository"
	"basebot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, ServiceName: "basebot"}, os.Stdout)
	slog.SetDefault(log)

	// ---- AWS SDK config, only when a component needs it ----
	var awsCfg aws.Config
	if cfg.NeedsParamStore() || cfg.DedupTable != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			fatal("failed to load AWS config", err)
		}
	}
	if cfg.NeedsParamStore() {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		if err := cfg.ResolveSecrets(ctx, ssmClient); err != nil {
			fatal("failed to resolve secrets", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	// ---- Clients ----
	groqClient, err := groq.NewClient(cfg.GroqAPIKey, groq.WithBaseURL(cfg.GroqBaseURL))
	if err != nil {
		fatal("failed to create Groq client", err)
	}
	tgClient, err := telegram.New(cfg.TelegramToken, telegram.WithLogger(log))
	if err != nil {
		fatal("failed to create Telegram client", err)
	}

	knowledge := usecase.DefaultKnowledgeBase()
	if cfg.KnowledgeFile != "" {
		knowledge, err = usecase.LoadKnowledgeBase(cfg.KnowledgeFile)
		if err != nil {
			fatal("failed to load knowledge file", err)
		}
	}

	replyService, err := usecase.NewReplyService(groqClient, knowledge, cfg.GroqModel, usecase.WithLocation(cfg.Location))
	if err != nil {
		fatal("failed to create reply service", err)
	}

	botOpts := []bot.Option{bot.WithLogger(log)}
	if cfg.DedupTable != "" {
		dedup, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.DedupTable)
		if err != nil {
			fatal("failed to create dedup store", err)
		}
		botOpts = append(botOpts, bot.WithDeduper(dedup))
	}
	b, err := bot.New(replyService, tgClient, tgClient.Username(), botOpts...)
	if err != nil {
		fatal("failed to create bot", err)
	}

	// ---- Run ----
	if cfg.Lambda {
		h, err := handler.NewHandler(b, cfg.WebhookSecret)
		if err != nil {
			fatal("failed to create handler", err)
		}
		lambda.Start(h.Handle)
		return
	}

	log.Info("bot is running", "username", tgClient.Username(), "model", cfg.GroqModel, "keywords", knowledge.Len())
	if err := tgClient.Poll(ctx, b.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		fatal("polling stopped", err)
	}
	log.Info("bot stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
