// Command dexter is the main entry point for the Dexter question-answering
// server.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pokedexlab/dexter/internal/answer"
	"github.com/pokedexlab/dexter/internal/config"
	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/dex/dexstore"
	"github.com/pokedexlab/dexter/internal/dex/pokeapi"
	"github.com/pokedexlab/dexter/internal/dex/resolver"
	discordbot "github.com/pokedexlab/dexter/internal/discord"
	"github.com/pokedexlab/dexter/internal/health"
	"github.com/pokedexlab/dexter/internal/mcpserver"
	"github.com/pokedexlab/dexter/internal/observe"
	"github.com/pokedexlab/dexter/internal/orchestrator"
	"github.com/pokedexlab/dexter/internal/semantic"
	"github.com/pokedexlab/dexter/internal/web"
	"github.com/pokedexlab/dexter/pkg/provider/embeddings"
	ollamaembed "github.com/pokedexlab/dexter/pkg/provider/embeddings/ollama"
	oaembed "github.com/pokedexlab/dexter/pkg/provider/embeddings/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	interactive := flag.Bool("interactive", false, "answer questions from stdin instead of serving")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "dexter: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "dexter: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("dexter starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "dexter"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Creature cache ────────────────────────────────────────────────────────
	store, checkers, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open creature cache", "err", err)
		return 1
	}
	defer closeStore()

	// ── Remote API client ─────────────────────────────────────────────────────
	baseURL := cfg.Dex.APIBaseURL
	if baseURL == "" {
		baseURL = pokeapi.DefaultBaseURL
	}
	var apiOpts []pokeapi.Option
	if cfg.Dex.TimeoutSeconds > 0 {
		apiOpts = append(apiOpts, pokeapi.WithTimeout(time.Duration(cfg.Dex.TimeoutSeconds)*time.Second))
	}
	api := pokeapi.New(baseURL, apiOpts...)
	checkers = append(checkers, health.RemoteChecker(api))

	// ── Answering pipeline ────────────────────────────────────────────────────
	res := resolver.New(api, store)
	synth := answer.New(res)
	orch := orchestrator.New(res, store, synth)
	sessions := convo.NewManager(convo.WithManagerMetrics(metrics))

	// ── Semantic index (optional) ─────────────────────────────────────────────
	if cfg.Semantic.Enabled {
		index, err := buildSemanticIndex(ctx, cfg)
		if err != nil {
			slog.Error("failed to build semantic index", "err", err)
			return 1
		}
		defer index.Close()
		checkers = append(checkers, health.PostgresChecker(index))
		slog.Info("semantic index ready", "provider", cfg.Semantic.Provider.Name)
	}

	printStartupSummary(cfg, *interactive)

	// ── Front ends ────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if *interactive {
		g.Go(func() error {
			defer stop()
			return runInteractive(gctx, orch, sessions)
		})
	}

	if cfg.Server.ListenAddr != "" {
		webSrv := web.New(orch, sessions,
			web.WithMetrics(metrics),
			web.WithHealth(health.New(checkers...)),
		)
		httpSrv := &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           webSrv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("http server listening", "addr", cfg.Server.ListenAddr, "tls", cfg.Server.TLS != nil)
			var err error
			if tls := cfg.Server.TLS; tls != nil {
				err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
			} else {
				err = httpSrv.ListenAndServe()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Discord.Token != "" {
		bot, err := discordbot.New(discordbot.Config{
			Token:   cfg.Discord.Token,
			GuildID: cfg.Discord.GuildID,
		}, orch, sessions)
		if err != nil {
			slog.Error("failed to connect Discord bot", "err", err)
			return 1
		}
		defer bot.Close()
		g.Go(func() error {
			err := bot.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		slog.Info("discord bot connected", "guild_id", cfg.Discord.GuildID)
	}

	if cfg.MCP.Enabled {
		mcpSrv := mcpserver.New(orch, sessions, mcpserver.WithMetrics(metrics))
		g.Go(func() error {
			err := mcpSrv.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	slog.Info("dexter ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildStore opens the configured creature cache. It returns the store, the
// readiness checkers it contributes, and a close function.
func buildStore(ctx context.Context, cfg *config.Config) (dexstore.Store, []health.Checker, func(), error) {
	// Postgres takes precedence when both sources are configured.
	if dsn := cfg.Dex.PostgresDSN; dsn != "" {
		pg, err := dexstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("creature cache backed by PostgreSQL")
		return pg, []health.Checker{health.PostgresChecker(pg)}, pg.Close, nil
	}

	if path := cfg.Dex.CachePath; path != "" {
		ws, err := dexstore.Watch(path)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("creature cache loaded", "path", path, "creatures", ws.Len())
		return ws, []health.Checker{health.CacheChecker(ws)}, ws.Stop, nil
	}

	return nil, nil, nil, errors.New("config: dex.cache_path or dex.postgres_dsn must be set")
}

// buildSemanticIndex creates the embeddings provider named in the config and
// connects the pgvector index.
func buildSemanticIndex(ctx context.Context, cfg *config.Config) (*semantic.Index, error) {
	reg := config.NewRegistry()
	registerEmbeddingsProviders(reg)

	provider, err := reg.CreateEmbeddings(cfg.Semantic.Provider)
	if err != nil {
		return nil, fmt.Errorf("create embeddings provider %q: %w", cfg.Semantic.Provider.Name, err)
	}
	return semantic.NewIndex(ctx, cfg.Semantic.PostgresDSN, provider, cfg.Semantic.EmbeddingDimensions)
}

// registerEmbeddingsProviders wires the built-in embeddings factories into reg.
func registerEmbeddingsProviders(reg *config.Registry) {
	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		if entry.Dimensions > 0 {
			opts = append(opts, oaembed.WithDimensions(entry.Dimensions))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterEmbeddings("ollama", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []ollamaembed.Option
		if entry.Dimensions > 0 {
			opts = append(opts, ollamaembed.WithDimensions(entry.Dimensions))
		}
		return ollamaembed.New(entry.BaseURL, entry.Model, opts...)
	})
}

// runInteractive answers questions read line by line from stdin until EOF.
func runInteractive(ctx context.Context, orch *orchestrator.Orchestrator, sessions *convo.Manager) error {
	const sessionID = "terminal"
	sess := sessions.Get(ctx, sessionID)
	defer sessions.Remove(ctx, sessionID)

	fmt.Println("Pergunte sobre um Pokémon da primeira geração. Ctrl+D para sair.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		question := scanner.Text()
		if question == "" {
			continue
		}

		reply, err := orch.Answer(ctx, sess, question)
		if err != nil {
			return err
		}
		fmt.Println(reply.Text)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, interactive bool) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Dexter — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Cache", cacheSummary(cfg))
	printRow("Remote API", remoteSummary(cfg))
	printRow("Discord", enabledWhen(cfg.Discord.Token != ""))
	printRow("MCP server", enabledWhen(cfg.MCP.Enabled))
	printRow("Semantic index", semanticSummary(cfg))
	printRow("Interactive", enabledWhen(interactive))
	if cfg.Server.ListenAddr != "" {
		printRow("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(kind, value string) {
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-14s : %-19s ║\n", kind, value)
}

func cacheSummary(cfg *config.Config) string {
	if cfg.Dex.PostgresDSN != "" {
		return "postgres"
	}
	if cfg.Dex.CachePath != "" {
		return cfg.Dex.CachePath
	}
	return "(none)"
}

func remoteSummary(cfg *config.Config) string {
	if cfg.Dex.APIBaseURL != "" {
		return cfg.Dex.APIBaseURL
	}
	return pokeapi.DefaultBaseURL
}

func semanticSummary(cfg *config.Config) string {
	if !cfg.Semantic.Enabled {
		return "(disabled)"
	}
	return cfg.Semantic.Provider.Name
}

func enabledWhen(on bool) string {
	if on {
		return "enabled"
	}
	return "(disabled)"
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
