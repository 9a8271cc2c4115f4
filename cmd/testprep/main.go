package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/testprep/internal/attempts"
	"github.com/pavelanni/testprep/internal/chatbot"
	"github.com/pavelanni/testprep/internal/handler"
	appI18n "github.com/pavelanni/testprep/internal/i18n"
	"github.com/pavelanni/testprep/internal/llm"
	"github.com/pavelanni/testprep/internal/llm/prompts"
	"github.com/pavelanni/testprep/internal/model"
	"github.com/pavelanni/testprep/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testprep",
		Short: "Weekly tests and mock exams for competitive exam preparation",
	}

	serve := serveCmd()
	root.AddCommand(serve, takeCmd(), importCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `testprep --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "testprep.db", "SQLite database path")
	f.StringSliceP("banks", "b", nil, "Item bank files to import, JSON or YAML (repeatable)")
	f.Bool("seed-catalog", true, "Seed the default tests, courses and study materials into an empty database")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables chat fallback and explanations)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("explain-style", string(prompts.StyleStandard), "Explanation prompt style (brief, standard, detailed)")
	f.StringP("lang", "l", "en", "Default language (en, hi)")
	f.String("admin-email", "admin@thinkplus.edu", "Login email of the initial admin")
	f.String("admin-password", "", "Initial admin password (or set TESTPREP_ADMIN_PASSWORD)")
	f.Bool("demo-user", false, "Create the demo learner john.doe@example.com")
	f.String("jwt-secret", "", "HMAC secret for access tokens (random per run if empty)")
	f.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	f.Duration("attempt-ttl", 6*time.Hour, "Drop unsubmitted attempts this long after they start")
	f.StringSlice("cors-origins", []string{"http://localhost:5173"}, "Allowed CORS origins")
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "testprep.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TESTPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("testprep")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/testprep")
	v.AddConfigPath("/etc/testprep")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if v.GetBool("demo-user") {
		if err := seedDemoUser(db); err != nil {
			return fmt.Errorf("seed demo user: %w", err)
		}
	}
	if _, err := importBanks(db, v.GetStringSlice("banks")); err != nil {
		return fmt.Errorf("import banks: %w", err)
	}
	if v.GetBool("seed-catalog") {
		if err := seedCatalog(db); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if err := seedContent(db); err != nil {
			return fmt.Errorf("seed content: %w", err)
		}
	}
	if n, err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired tokens", "error", err)
	} else if n > 0 {
		slog.Info("removed expired tokens", "count", n)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Keep the explainer a nil interface, not a typed nil, when the LLM is off.
	var (
		explainer handler.Explainer
		fallback  chatbot.Responder
	)
	if url := v.GetString("llm-url"); url != "" {
		llmClient, err := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"),
			prompts.Style(strings.ToLower(strings.TrimSpace(v.GetString("explain-style")))))
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		explainer = llmClient
		fallback = llmClient
	} else {
		slog.Info("no LLM configured; chat uses canned replies and explanations are disabled")
	}

	secret := []byte(v.GetString("jwt-secret"))
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate JWT secret: %w", err)
		}
		slog.Warn("no jwt-secret set; tokens will not survive a restart")
	}

	cfg := model.ServerConfig{
		JWTSecret:    secret,
		TokenTTL:     v.GetDuration("token-ttl"),
		CORSOrigins:  v.GetStringSlice("cors-origins"),
		ExplainStyle: v.GetString("explain-style"),
	}

	registry := attempts.NewRegistry()
	h, err := handler.New(db, registry, chatbot.New(fallback), explainer, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"llm_url", v.GetString("llm-url"),
		"explain_style", cfg.ExplainStyle,
		"token_ttl", cfg.TokenTTL,
		"attempt_ttl", v.GetDuration("attempt-ttl"),
		"cors_origins", cfg.CORSOrigins,
	)

	srv := &http.Server{Addr: addr, Handler: r}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	attemptTTL := v.GetDuration("attempt-ttl")
	g.Go(func() error {
		return registry.RunSweeper(gctx, time.Minute, attemptTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	results, err := db.ExportAllAttempts()
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	export := model.ResultsExport{
		ExportedAt:  time.Now(),
		NumAttempts: len(results),
		Results:     results,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported attempts", "count", len(results), "output", outPath)
	return nil
}
