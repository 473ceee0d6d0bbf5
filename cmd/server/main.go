package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raynardj/readly/internal/config"
	"github.com/raynardj/readly/internal/httpserver"
	"github.com/raynardj/readly/internal/logger"
)

var (
	flagHost       string
	flagPort       int
	flagNWorkers   int
	flagCertFile   string
	flagKeyFile    string
	flagLogLevel   string
	flagCookieName string
)

var rootCmd = &cobra.Command{
	Use:   "readly-server",
	Short: "readly serves the text-to-speech assistant API over raw TCP sockets",
	Long: `readly-server binds a listening socket, dispatches connections across a
worker pool, and routes exact-match GET/POST paths through a session-aware
handler chain. TLS termination is enabled by supplying --cert and --key.`,
	RunE: runServer,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&flagHost, "host", "", "bind host (overrides READLY_HOST)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "bind port (overrides READLY_PORT)")
	rootCmd.Flags().IntVar(&flagNWorkers, "workers", 0, "worker pool size (overrides READLY_N_WORKERS)")
	rootCmd.Flags().StringVar(&flagCertFile, "cert", "", "TLS certificate file (overrides READLY_CERT_FILE)")
	rootCmd.Flags().StringVar(&flagKeyFile, "key", "", "TLS key file (overrides READLY_KEY_FILE)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "DEBUG, INFO, WARN, or ERROR (overrides READLY_LOG_LEVEL)")
	rootCmd.Flags().StringVar(&flagCookieName, "cookie-name", "", "session cookie name (overrides READLY_COOKIE_NAME)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(&cfg)

	log := logger.NewDefault(logger.ParseLevel(cfg.LogLevel))

	opts := []httpserver.Option{httpserver.WithLogger(log)}
	if cfg.TLSEnabled() {
		opts = append(opts, httpserver.WithTLS(cfg.CertFile, cfg.KeyFile))
	}

	srv := httpserver.New(cfg.Host, cfg.Port, cfg.NWorkers, opts...)
	if err := registerRoutes(srv, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func applyFlagOverrides(cfg *config.Config) {
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagNWorkers != 0 {
		cfg.NWorkers = flagNWorkers
	}
	if flagCertFile != "" {
		cfg.CertFile = flagCertFile
	}
	if flagKeyFile != "" {
		cfg.KeyFile = flagKeyFile
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagCookieName != "" {
		cfg.CookieName = flagCookieName
	}
}

// registerRoutes wires the application's exact-match routes: the naked
// root, the cookie-gated profile route, the logout route, and the
// cookie-gated sentence-measurement endpoint carried over from the original FastAPI
// app. It refuses to start the server if no session secret is
// configured, since every gated route below depends on session
// middleware being registered.
func registerRoutes(srv *httpserver.Server, cfg config.Config) error {
	if cfg.SessionSecret == "" {
		return fmt.Errorf("registerRoutes: READLY_SESSION_SECRET must be set")
	}
	if _, err := srv.UseSession([]byte(cfg.SessionSecret), cfg.CookieName); err != nil {
		return fmt.Errorf("registerRoutes: %w", err)
	}
	cookieName := srv.CookieName()

	srv.Get("/naked", func(req *httpserver.Request) *httpserver.Response {
		return httpserver.JSONResponse(map[string]string{"message": "Hello"}, 200)
	})

	srv.Get("/my_profile", httpserver.RequireAuth(func(req *httpserver.Request) *httpserver.Response {
		user, _ := req.Session["user"].(map[string]interface{})
		if user == nil {
			user = map[string]interface{}{}
		}
		if cookie, ok := req.Cookies[cookieName]; ok && len(cookie) > 20 {
			user["token"] = cookie[:20]
		}
		return httpserver.JSONResponse(user, 200)
	}, cookieName, nil))

	srv.Get("/logout", func(req *httpserver.Request) *httpserver.Response {
		for k := range req.Session {
			delete(req.Session, k)
		}
		return httpserver.RedirectResponse("/login", 302)
	})

	srv.Post("/sentence_measure/", httpserver.RequireAuth(func(req *httpserver.Request) *httpserver.Response {
		body := req.JSON()
		return httpserver.JSONResponse(map[string]interface{}{
			"text_id":   body["text_id"],
			"sentences": []string{},
		}, 200)
	}, cookieName, nil))

	return nil
}
