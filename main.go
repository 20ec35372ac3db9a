package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"document_editing_agent/config"
	"document_editing_agent/generator"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"debug":    "debug",
	"provider": "llm.provider",
	"model":    "llm.model",
	"addr":     "server.addr",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:           "editagent",
		Short:         "Turn editing instructions into executable document edit plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional
			_ = godotenv.Load()

			a.v = config.New()
			for name, key := range flagKeys {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := a.v.BindPFlag(key, f); err != nil {
						return errors.Wrapf(err, "bind flag %s", name)
					}
				}
			}
			cfg, err := config.Load(a.v, configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, err = newLogger(cfg.Debug)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	root.PersistentFlags().Bool("debug", false, "enable debug logs")
	root.PersistentFlags().String("provider", "", "llm provider (azure, openai, deepseek, ollama, openrouter, compatible, anthropic, gemini, mock)")
	root.PersistentFlags().String("model", "", "llm model or deployment name")

	root.AddCommand(newServeCmd(a), newGenerateCmd(a))
	return root
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildService assembles provider, middleware, agent and service from cfg.
func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec generator.Recorder) (*generator.Service, error) {
	llm, err := generator.NewLLM(ctx, &generator.LLMSettings{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		APIVersion: cfg.LLM.APIVersion,
	})
	if err != nil {
		return nil, err
	}
	llm = generator.Chain(llm,
		generator.RateLimit(cfg.LLM.RequestsPerSecond, 1),
		generator.Retry(cfg.LLM.MaxRetries, 500*time.Millisecond, logger),
	)

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithTimeout(cfg.LLM.Timeout),
		generator.WithMaxOutputTokens(cfg.LLM.MaxOutputTokens),
		generator.WithPromptLimits(generator.PromptLimits{
			MaxParagraphs:     cfg.Prompt.MaxParagraphs,
			MaxParagraphChars: cfg.Prompt.MaxParagraphChars,
			MaxSummaryChars:   cfg.Prompt.MaxSummaryChars,
		}),
	}
	if rec != nil {
		opts = append(opts, generator.WithRecorder(rec))
	}
	agent, err := generator.NewAgent(llm, opts...)
	if err != nil {
		return nil, err
	}
	return generator.NewService(agent, logger), nil
}
