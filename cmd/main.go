package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	cfg "github.com/crashlens/crashlens/internal/config"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/infrastructure/ai/gemini"
	"github.com/crashlens/crashlens/internal/infrastructure/store/postgres"
	"github.com/crashlens/crashlens/internal/logger"
	"github.com/crashlens/crashlens/internal/services"
	"github.com/crashlens/crashlens/internal/worker"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Error initializing the cli: %v", err)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func initializeApp() (*cli.Command, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not resolve the user home directory: %w", err)
	}

	return &cli.Command{
		Name:        "crashlens",
		Usage:       "LLM-assisted root cause analysis for error events",
		Description: "Parses stack traces, fetches the surrounding source from the project repository and asks an LLM for a root cause analysis.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the TOML config file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Include source locations in log output",
			},
		},
		Commands: []*cli.Command{
			newWorkerCommand(homeDir),
			newAnalyzeCommand(homeDir),
		},
		EnableShellCompletion: true,
	}, nil
}

func loadConfig(cmd *cli.Command, homeDir string) (*cfg.Config, error) {
	path := cmd.String("config")
	if path == "" {
		path = homeDir
	}
	return cfg.LoadConfig(path)
}

func newWorkerCommand(homeDir string) *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "Run the background worker that analyzes pending error events",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))

			config, err := loadConfig(cmd, homeDir)
			if err != nil {
				return err
			}
			if config.StoreConfig.DatabaseURL == "" {
				return fmt.Errorf("store.database_url is not configured in %s", config.PathFile)
			}

			analyzer, err := gemini.NewAnalyzer(ctx, config.AIConfig.GeminiAPIKey, string(config.AIConfig.Model))
			if err != nil {
				return err
			}

			pool, err := postgres.Connect(ctx, config.StoreConfig.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			retryBackoff := secondsDuration(config.WorkerConfig.RetryBackoffSeconds)
			store, err := postgres.New(ctx, pool, config.WorkerConfig.MaxAttempts, retryBackoff)
			if err != nil {
				return err
			}
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			service := services.NewAnalysisService(analyzer, config.FetchConfig)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := worker.New(store, service, config.WorkerConfig)
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func newAnalyzeCommand(homeDir string) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a single stack trace from a file or stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "message",
				Usage: "The error message that accompanies the stack trace",
			},
			&cli.StringFlag{
				Name:  "trace-file",
				Usage: "File containing the stack trace (reads stdin when omitted)",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Repository owner for source context fetching",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Repository name for source context fetching",
			},
			&cli.StringFlag{
				Name:  "branch",
				Usage: "Branch to fetch source from",
			},
			&cli.StringFlag{
				Name:  "commit",
				Usage: "Commit SHA to fetch source from (takes precedence over --branch)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Source hosting provider (github or gitlab)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Access token for the repository",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Repository subdirectory the project lives in",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger.InitializePretty(cmd.Bool("debug"), cmd.Bool("verbose"))

			config, err := loadConfig(cmd, homeDir)
			if err != nil {
				return err
			}

			stackTrace, err := readStackTrace(cmd.String("trace-file"))
			if err != nil {
				return err
			}
			if strings.TrimSpace(stackTrace) == "" {
				return fmt.Errorf("no stack trace provided")
			}

			analyzer, err := gemini.NewAnalyzer(ctx, config.AIConfig.GeminiAPIKey, string(config.AIConfig.Model))
			if err != nil {
				return err
			}

			req := ports.AnalysisRequest{
				Message:    cmd.String("message"),
				StackTrace: stackTrace,
				RepoConfig: repoConfigFromFlags(cmd),
			}

			service := services.NewAnalysisService(analyzer, config.FetchConfig)
			result, err := service.AnalyzeError(ctx, req)
			if err != nil {
				return err
			}

			printResult(result)
			return nil
		},
	}
}

func repoConfigFromFlags(cmd *cli.Command) *models.RepoConfig {
	if cmd.String("owner") == "" || cmd.String("repo") == "" {
		return nil
	}
	return &models.RepoConfig{
		Owner:       cmd.String("owner"),
		Repo:        cmd.String("repo"),
		Branch:      cmd.String("branch"),
		CommitSHA:   cmd.String("commit"),
		Provider:    models.Provider(cmd.String("provider")),
		AccessToken: cmd.String("token"),
		RootDir:     cmd.String("root"),
	}
}

func readStackTrace(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("could not read the trace file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("could not read the stack trace from stdin: %w", err)
	}
	return string(data), nil
}

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func printResult(result models.AnalysisResult) {
	header := color.New(color.FgCyan, color.Bold)
	meta := color.New(color.FgHiBlack)

	_, _ = header.Println("Analysis")
	_, _ = meta.Printf("model: %s  confidence: %s\n\n", result.Model, result.Confidence)
	fmt.Println(result.Text)
}
