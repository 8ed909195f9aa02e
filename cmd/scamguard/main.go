package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/api"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/usecase"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/conf"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/data"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/llm"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/telegram"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/server"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

const janitorInterval = 6 * time.Hour

func main() {
	app := cli.App{
		Name:   "scamguard",
		Usage:  "Telegram support-group scam moderation bot",
		Action: runBot,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "moderate the support group (default)",
			Action: runBot,
		},
		{
			Name:      "classify",
			Usage:     "classify messages with the live policy and print the verdict",
			ArgsUsage: "<message> [message...]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "sender display name",
				},
			},
			Action: runClassify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Sync()
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment and initializes logging
func loadConfig() *conf.Config {
	envErr := godotenv.Load()

	cfg := conf.LoadFromEnv()
	if err := log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
	}
	if envErr != nil {
		log.Debugw("no .env file found, using environment variables")
	}
	return cfg
}

func runBot(cctx *cli.Context) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize clients
	llmClient := newLLMClient(cfg)
	tgClient, err := telegram.NewClient(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(ctx, cfg, tgClient, llmClient)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Close()

	// Initialize usecase layer
	ucs := biz.NewUsecases(repos.History, repos.Classifier, repos.Platform, repos.Ledger,
		cfg.ToClassifyConfig(), cfg.ToModerationConfig())

	// Initialize service layer
	svc := service.NewModerationService(ucs.Moderation, ucs.Classify, repos.History, repos.Ledger)

	var janitor *service.Janitor
	if repos.Ledger != nil {
		janitor = service.NewJanitor(repos.Ledger, cfg.Ledger.Retention(), janitorInterval)
		log.Infow("moderation ledger enabled", "path", cfg.Ledger.DBPath, "retention_days", cfg.Ledger.RetentionDays)
	}

	// Operator API
	if cfg.API.Addr != "" {
		apiServer := api.NewServer(svc, cfg.API.Addr)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error("API server error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Stop(shutdownCtx)
		}()
	}

	mc := ucs.Moderation.Config()
	log.Infow("starting scam moderation bot",
		"support_chat_id", mc.SupportChatID,
		"audit_chat_id", mc.AuditChatID,
		"whitelist", len(mc.Whitelist),
		"role_check", mc.RoleCheck,
		"history_backend", cfg.History.Backend,
		"model", llmClient.Model(),
	)

	srv := server.NewTelegramServer(tgClient, svc, janitor)
	srv.Start(ctx)

	log.Infow("shut down")
	log.Sync()
	return nil
}

func runClassify(cctx *cli.Context) error {
	messages := cctx.Args().Slice()
	if len(messages) == 0 {
		return cli.Exit("need to provide at least one message as an argument", 2)
	}

	cfg := loadConfig()
	if cfg.Classifier.APIKey == "" {
		return cli.Exit("invalid config: CLASSIFIER_API_KEY: missing required value", 1)
	}
	if err := cfg.PolicyError(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	classifyUC := usecase.NewClassifyUsecase(
		data.NewClassifierRepo(newLLMClient(cfg), cfg.Policy.SystemText()),
		cfg.ToClassifyConfig(),
	)

	verdict, attempts, err := classifyUC.ClassifyWithRetry(cctx.Context, messages, cctx.String("name"), 0)
	if err != nil {
		return err
	}
	fmt.Printf("%s (attempts=%d, messages=%d)\n", strings.ToUpper(string(verdict)), attempts, len(messages))
	return nil
}

func newLLMClient(cfg *conf.Config) *llm.Client {
	return llm.NewClient(llm.Options{
		APIKey:      cfg.Classifier.APIKey,
		BaseURL:     cfg.Classifier.BaseURL,
		Model:       cfg.Classifier.Model,
		Temperature: cfg.Policy.Temperature,
		MaxTokens:   cfg.Policy.MaxTokens,
		RPS:         cfg.Classifier.RPS,
	})
}
