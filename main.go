// Command netbattle starts the NetBattle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from NETBATTLE_* environment variables (optionally from a .env
// file); flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/netbattle/api"
	"github.com/wricardo/netbattle/game/config"
	"github.com/wricardo/netbattle/game/mob"
	"github.com/wricardo/netbattle/game/service"
	"github.com/wricardo/netbattle/game/session"
	"github.com/wricardo/netbattle/transport/mcp"
	"github.com/wricardo/netbattle/transport/websocket"
	"github.com/wricardo/netbattle/webclient"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "NetBattle Server"
)

// Configuration flags. Unset flags fall back to the environment.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", "configs", "Directory containing battles/ and maps/")
	sessionStore = flag.String("store", "file", "Session store: file, sqlite, postgres or memory")
	tickRate     = flag.Duration("tick", 0, "Server-side battle tick interval (0 disables)")
	webClientURL = flag.String("webclient-url", "", "Remote account server URL (optional)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store sqlite -tick 16ms # SQLite sessions, 60 ticks per second\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Invalid environment configuration: %v", err)
	}
	applyFlagOverrides(cfg, explicitFlags())

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s, store: %s)", AppName, Version, mode, cfg.SessionStore)

	services, err := initializeServices(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(cfg, services)

	case "server", "http":
		if err := runHTTPServer(cfg, services); err != nil {
			log.Printf("Server error: %v", err)
		}

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// explicitFlags returns the names of flags given on the command line
func explicitFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// applyFlagOverrides copies explicitly set flags over the environment config
func applyFlagOverrides(cfg *config.ServerConfig, set map[string]bool) {
	if set["port"] {
		cfg.Port = *port
	}
	if set["config-dir"] {
		cfg.ConfigDir = *configDir
	}
	if set["store"] {
		cfg.SessionStore = *sessionStore
	}
	if set["tick"] {
		cfg.TickRate = *tickRate
	}
	if set["webclient-url"] {
		cfg.WebClient.URL = *webClientURL
	}
	if set["ngrok"] {
		cfg.Ngrok = *ngrokEnabled
	}
	if set["ngrok-auth"] {
		cfg.NgrokAuthToken = *ngrokAuth
	}
	if set["ngrok-domain"] {
		cfg.NgrokDomain = *ngrokDomain
	}
}

// Services bundles everything the transports need
type Services struct {
	Battles     service.BattleService
	Sessions    *session.Manager
	Persistence session.SessionPersistence
	Accounts    *webclient.Manager // nil without a web client URL

	closers []io.Closer
}

// Close saves sessions and releases stores and background loops
func (s *Services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if s.Accounts != nil {
		s.Accounts.Shutdown()
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("Warning: close failed: %v", err)
		}
	}
}

// initializeServices wires config, persistence, sessions, mobs and the battle service
func initializeServices(cfg *config.ServerConfig) (*Services, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if cfg.ConfigName != "" {
		if err := configManager.SetDefault(cfg.ConfigName); err != nil {
			return nil, fmt.Errorf("failed to select default config %s: %w", cfg.ConfigName, err)
		}
	}

	services := &Services{}

	persistence, closer, err := openPersistence(cfg, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}
	if closer != nil {
		services.closers = append(services.closers, closer)
	}

	if persistence != nil {
		services.Sessions = session.NewManagerWithPersistence(persistence)
	} else {
		services.Sessions = session.NewManager()
	}
	services.Persistence = persistence

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	services.Sessions.SetMobRegistry(mob.NewRegistry(rand.New(rand.NewSource(seed))))

	if err := services.Sessions.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	services.Battles = service.NewBattleService(services.Sessions, configManager)

	if cfg.WebClient.URL != "" {
		services.Accounts = webclient.NewManager(
			webclient.WithPingInterval(cfg.WebClient.PingInterval),
			webclient.WithTaskTimeout(cfg.WebClient.Timeout),
		)
		services.Accounts.ConnectToWebServer(cfg.WebClient.URL)
		log.Printf("Account web client targeting %s", cfg.WebClient.URL)
	}

	return services, nil
}

// openPersistence selects the session store. The memory store has no
// persistence at all.
func openPersistence(cfg *config.ServerConfig, configs service.ConfigManager) (session.SessionPersistence, io.Closer, error) {
	switch cfg.SessionStore {
	case "memory":
		return nil, nil, nil
	case "sqlite":
		store, err := session.NewSQLitePersistence(cfg.SQLitePath, configs)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "postgres":
		store, err := session.NewPostgresPersistence(cfg.PostgresDSN, configs)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "file", "":
		store, err := session.NewFilePersistence(cfg.SessionDir, configs)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown session store %q", config.ErrInvalidConfig, cfg.SessionStore)
}

// newMainRouter mounts the REST API and the /mcp endpoint on one mux
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server, the WebSocket hub, background loops and
// the optional ngrok tunnel, and blocks until a shutdown signal arrives.
func runHTTPServer(cfg *config.ServerConfig, services *Services) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	apiServer := api.NewServer(services.Battles, hub, services.Accounts)

	addr := fmt.Sprintf("%s:%d", *host, cfg.Port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(ctx, services.Sessions, time.Hour, 24*time.Hour)
		return nil
	})

	if cfg.SessionStore == "file" && services.Persistence != nil {
		g.Go(func() error {
			filesystemSyncRoutine(ctx, services.Sessions, services.Persistence, 5*time.Second)
			return nil
		})
	}

	if cfg.TickRate > 0 {
		log.Printf("Battle tick loop every %v", cfg.TickRate)
		g.Go(func() error {
			tickLoop(ctx, services.Battles, hub, cfg.TickRate)
			return nil
		})
	}

	if cfg.Ngrok {
		g.Go(func() error {
			runNgrok(ctx, cfg, mainRouter)
			return nil
		})
	}

	err := g.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrok serves the router through an ngrok tunnel until ctx is done.
// Failures are logged; the local server keeps running.
func runNgrok(ctx context.Context, cfg *config.ServerConfig, handler http.Handler) {
	authToken := cfg.NgrokAuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// tickLoop steps every session with an active battle once per interval and
// pushes the result to its WebSocket watchers
func tickLoop(ctx context.Context, battles service.BattleService, hub *websocket.Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	elapsed := math.Min(interval.Seconds(), service.MaxStepElapsed)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickSessions(ctx, battles, hub, elapsed)
		}
	}
}

// tickSessions runs one tick and returns how many sessions were stepped
func tickSessions(ctx context.Context, battles service.BattleService, hub *websocket.Hub, elapsed float64) int {
	sessions, err := battles.ListSessions(ctx)
	if err != nil {
		log.Printf("Tick: failed to list sessions: %v", err)
		return 0
	}

	stepped := 0
	for _, info := range sessions {
		if info.Field == nil || !info.Field.BattleActive {
			continue
		}
		result, err := battles.Step(ctx, info.ID, service.StepRequest{Elapsed: elapsed, Steps: 1})
		if err != nil {
			log.Printf("Tick: session %s: %v", info.ID, err)
			continue
		}
		stepped++

		if hub != nil && hub.ClientCount(info.ID) > 0 {
			hub.BroadcastToSession(info.ID, result.Field, result.Events, result.Mob)
		}
	}
	return stepped
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops in-memory sessions whose files were deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneDeletedSessions(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if !persistence.Exists(s.ID) {
			if err := manager.DeleteFromMemory(s.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (file deleted)", s.ID)
			}
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured port; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(cfg *config.ServerConfig, services *Services) {
	externalURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(services.Battles, hub, services.Accounts),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}
