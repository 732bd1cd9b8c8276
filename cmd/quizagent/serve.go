package main

import (
	"log"

	"github.com/spf13/cobra"

	"quizagent/config"
	"quizagent/internal/agent"
	"quizagent/internal/llm"
	"quizagent/internal/ratelimit"
	"quizagent/internal/runtimedir"
	"quizagent/internal/server"
	"quizagent/internal/telemetry"
	"quizagent/internal/tools"
	"quizagent/internal/transcribe"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the quiz agent HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			tel := telemetry.New()

			// A broken agent setup (missing key, unwritable runtime dir)
			// must not keep the health endpoints down. The server reports
			// the error and solve requests fail with it.
			runner, initErr := buildRunner(cfg, tel)
			if initErr != nil {
				log.Printf("agent unavailable: %v", initErr)
			}

			srv := server.New(runner, initErr, tel, nil)
			addr := serveAddr
			if addr == "" {
				addr = cfg.Server.Address
			}
			return srv.Start(addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}

func buildRunner(cfg *config.Config, tel *telemetry.Telemetry) (server.AgentRunner, error) {
	provider, err := llm.NewChatProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	dir, err := runtimedir.Resolve(cfg.Tools.RuntimeDir)
	if err != nil {
		return nil, err
	}

	var transcriber transcribe.Transcriber = transcribe.Noop{}
	if cfg.LLM.APIKey != "" {
		transcriber = transcribe.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.TranscriptionModel, cfg.LLM.Timeout)
	}

	toolLogger := log.New(log.Writer(), "[TOOLS] ", log.LstdFlags)
	download := tools.Download{
		Dir:     dir,
		Retries: cfg.Tools.DownloadRetries,
		Timeout: cfg.Tools.DownloadTimeout,
		Logger:  toolLogger,
	}
	registry, err := tools.NewRegistry(toolLogger,
		tools.Browse{Timeout: cfg.Tools.BrowseTimeout, MaxChars: cfg.Tools.BrowseMaxChars, Logger: toolLogger},
		download,
		tools.Post{Timeout: cfg.Tools.DownloadTimeout, Logger: toolLogger},
		tools.RunCode{Dir: dir, Interpreter: cfg.Tools.PythonInterpreter, Timeout: cfg.Tools.CodeTimeout, Logger: toolLogger},
		tools.AddDependencies{Interpreter: cfg.Tools.PythonInterpreter, Logger: toolLogger},
		tools.ProcessAudio{Downloader: download, Transcriber: transcriber, Dir: dir, Logger: toolLogger},
	)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.Agent.LLMInterval)
	agentLogger := log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	return agent.NewRunner(provider, registry, limiter, tel, agentLogger,
		cfg.Agent.MaxIterations, cfg.Credentials.Email, cfg.Credentials.Secret), nil
}
