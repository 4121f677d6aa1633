// Command labyrinth starts the labyrinth game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, WebSocket, metrics and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each with an environment variable) control host/port, the preset
// directory, where sessions are stored, debug logging and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/labyrinth/api"
	"github.com/wricardo/mcp-training/labyrinth/game/config"
	"github.com/wricardo/mcp-training/labyrinth/game/service"
	"github.com/wricardo/mcp-training/labyrinth/game/session"
	"github.com/wricardo/mcp-training/labyrinth/transport/mcp"
	"github.com/wricardo/mcp-training/labyrinth/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Labyrinth Game Server"
)

// Session store kinds
const (
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

var (
	portFlag = &cli.IntFlag{
		Name:    "port",
		Value:   8080,
		Usage:   "HTTP server port",
		Sources: cli.EnvVars("PORT"),
	}
	hostFlag = &cli.StringFlag{
		Name:    "host",
		Value:   "localhost",
		Usage:   "HTTP server host",
		Sources: cli.EnvVars("HOST"),
	}
	configDirFlag = &cli.StringFlag{
		Name:    "config-dir",
		Value:   "configs",
		Usage:   "Directory containing game presets",
		Sources: cli.EnvVars("CONFIG_DIR"),
	}
	storeFlag = &cli.StringFlag{
		Name:    "store",
		Value:   StoreFile,
		Usage:   "Session store: file, badger or memory",
		Sources: cli.EnvVars("STORE"),
	}
	sessionsDirFlag = &cli.StringFlag{
		Name:    "sessions-dir",
		Value:   "sessions",
		Usage:   "Directory for persisted sessions (file store) or the database (badger store)",
		Sources: cli.EnvVars("SESSIONS_DIR"),
	}
	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		Sources: cli.EnvVars("DEBUG"),
	}
	ngrokFlag = &cli.BoolFlag{
		Name:    "ngrok",
		Usage:   "Enable ngrok tunnel",
		Sources: cli.EnvVars("NGROK_ENABLED"),
	}
	ngrokAuthFlag = &cli.StringFlag{
		Name:    "ngrok-auth",
		Usage:   "Ngrok auth token",
		Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
	}
	ngrokDomainFlag = &cli.StringFlag{
		Name:    "ngrok-domain",
		Usage:   "Custom ngrok domain (optional)",
		Sources: cli.EnvVars("NGROK_DOMAIN"),
	}
	apiURLFlag = &cli.StringFlag{
		Name:    "api-url",
		Value:   "http://localhost:8080",
		Usage:   "External API the MCP server uses when it is reachable",
		Sources: cli.EnvVars("API_URL"),
	}
)

// main loads .env, builds the command and runs it.
func main() {
	// Missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the root command with its modes
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "labyrinth",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			portFlag, hostFlag, configDirFlag, storeFlag, sessionsDirFlag, debugFlag,
			ngrokFlag, ngrokAuthFlag, ngrokDomainFlag,
		},
		Action: runHTTPServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint (default)",
				Action:  runHTTPServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API when none is reachable",
				Flags:   []cli.Flag{apiURLFlag},
				Action:  runStdioMCP,
			},
		},
	}
}

// newLogger writes text logs to w, at debug level when debug is set
func newLogger(w *os.File, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, AddSource: debug}))
}

// serviceOptions selects where presets and sessions live
type serviceOptions struct {
	ConfigDir   string
	Store       string
	SessionsDir string
}

func optionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:   cmd.String(configDirFlag.Name),
		Store:       cmd.String(storeFlag.Name),
		SessionsDir: cmd.String(sessionsDirFlag.Name),
	}
}

// services holds everything the transports share
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	closers     []func() error
	logger      *slog.Logger
}

// initializeServices wires the config and session managers into the game
// service. It loads persisted sessions but starts no background routines.
func initializeServices(opts serviceOptions, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	s := &services{logger: logger}
	switch opts.Store {
	case StoreFile, "":
		fp, err := session.NewFilePersistence(opts.SessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		s.persistence = fp
	case StoreBadger:
		bp, err := session.OpenBadgerPersistence(opts.SessionsDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		s.persistence = bp
		s.closers = append(s.closers, bp.Close)
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown session store %q (use %s, %s or %s)", opts.Store, StoreFile, StoreBadger, StoreMemory)
	}

	if s.persistence != nil {
		s.sessions = session.NewManagerWithPersistence(s.persistence, logger)
		if err := s.sessions.LoadPersistedSessions(); err != nil {
			logger.Warn("failed to load persisted sessions", "error", err)
		}
	} else {
		s.sessions = session.NewManager(logger)
	}

	s.game = service.NewGameService(s.sessions, configManager, logger)
	logger.Info("services ready", "config_dir", opts.ConfigDir, "store", opts.Store, "presets", configManager.Count())
	return s, nil
}

// start launches the cleanup and store sync routines until ctx ends
func (s *services) start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, s.sessions, cleanupInterval, s.logger)
	}()
	if s.persistence != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			storeSyncRoutine(ctx, s.sessions, s.persistence, syncInterval, s.logger)
		}()
	}
}

// Close saves every session and releases the store
func (s *services) Close(ctx context.Context) error {
	errs := []error{s.sessions.Close(ctx)}
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// storeSyncRoutine drops sessions from memory once their persisted copy is
// removed from the store.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphans(manager, persistence, logger)
		}
	}
}

// pruneOrphans removes in-memory sessions missing from persistence and
// returns how many it removed
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, logger *slog.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Info("pruned session from memory, persisted copy deleted", "session", sess.ID)
		}
	}
	return pruned
}

// newHandler builds the API server with the /mcp endpoint mounted on it
func newHandler(game service.GameService, hub *websocket.Hub, baseURL string, logger *slog.Logger) http.Handler {
	apiServer := api.NewServer(game, hub, logger)
	mcpClient := mcp.NewClient(baseURL, logger)
	apiServer.Handle("/mcp", server.NewStreamableHTTPServer(mcpClient.GetMCPServer(),
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	))
	return apiServer
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, metrics
// and the /mcp endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(os.Stderr, cmd.Bool(debugFlag.Name))
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "serve")

	svc, err := initializeServices(optionsFrom(cmd), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	svc.start(runCtx, &wg)

	hub := websocket.NewHub(logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(runCtx)
	}()

	addr := net.JoinHostPort(cmd.String(hostFlag.Name), fmt.Sprint(cmd.Int(portFlag.Name)))
	handler := newHandler(svc.game, hub, "http://"+addr, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp",
			"metrics", "http://"+addr+"/metrics")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cmd.Bool(ngrokFlag.Name) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(runCtx, cmd.String(ngrokAuthFlag.Name), cmd.String(ngrokDomainFlag.Name), handler, logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	wg.Wait()

	if err := svc.Close(shutdownCtx); err != nil {
		logger.Error("failed to save sessions", "error", err)
	}
	logger.Info("server stopped")
	return runErr
}

// runNgrok serves handler through an ngrok tunnel until ctx ends
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *slog.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")
	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established", "url", url, "api", url+"/api", "mcp", url+"/mcp")
	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// apiAvailable reports whether an API server answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the external API when it
// answers, otherwise it starts an internal HTTP API on a random loopback port
// and targets that. Logs go to stderr, stdout carries the protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(os.Stderr, cmd.Bool(debugFlag.Name))
	slog.SetDefault(logger)

	baseURL := cmd.String(apiURLFlag.Name)
	logger.Info("checking for external API server", "url", baseURL)

	if apiAvailable(ctx, baseURL) {
		logger.Info("external API server found, using it for MCP", "url", baseURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(optionsFrom(cmd), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		runCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		svc.start(runCtx, &wg)

		hub := websocket.NewHub(logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(runCtx)
		}()

		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		logger.Info("internal HTTP server started", "url", baseURL)

		defer func() {
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
			wg.Wait()
			if err := svc.Close(shutdownCtx); err != nil {
				logger.Error("failed to save sessions", "error", err)
			}
		}()
	}

	mcpClient := mcp.NewClient(baseURL, logger)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
