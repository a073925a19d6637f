// Command hexcoop runs the cooperative hex-grid game.
//
// Two subcommands:
//   - serve: the game server (WebSocket player endpoint, HTTP status and
//     asset routes), with an optional ngrok tunnel for external playtests.
//   - agent: an MCP stdio server that lets AI agents join and play games on
//     a running server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/hexcoop/hexcoop/api"
	"github.com/hexcoop/hexcoop/game/config"
	"github.com/hexcoop/hexcoop/game/lobby"
	"github.com/hexcoop/hexcoop/game/record"
	"github.com/hexcoop/hexcoop/logger"
	"github.com/hexcoop/hexcoop/transport/mcp"
	"github.com/hexcoop/hexcoop/transport/websocket"
)

const version = "1.0.0"

func main() {
	// A .env file is optional; variables like NGROK_AUTHTOKEN come from it
	// during development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	cmd := &cli.Command{
		Name:    "hexcoop",
		Usage:   "two-player cooperative hex-grid game",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a JSON configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			agentCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the game server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "override the configured HTTP port",
			},
			&cli.BoolFlag{
				Name:  "ngrok",
				Usage: "expose the server through an ngrok tunnel",
			},
			&cli.StringFlag{
				Name:  "ngrok-domain",
				Usage: "custom ngrok domain",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := int(cmd.Int("port")); port != 0 {
		cfg.HTTPPort = port
	}

	log, err := logger.Init(cmd.Bool("debug") || cfg.Debug)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer logger.Sync()

	recorder, err := record.NewFileRecorder(cfg.RecordDirectory(), log)
	if err != nil {
		return err
	}
	defer recorder.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := lobby.NewLobby(clock.New(), recorder, log)
	l.SetMapSeed(cfg.MapSeed)
	go l.Run(ctx)

	hub := websocket.NewHub(l, log)
	server := api.NewServer(l, hub, cfg.AssetsDirectory(), log)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("server listening",
			zap.String("addr", addr),
			zap.String("player_endpoint", fmt.Sprintf("ws://localhost%s/player_endpoint", addr)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cmd.Bool("ngrok") {
		go func() {
			if err := serveNgrok(ctx, cmd.String("ngrok-domain"), server, log); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// serveNgrok publishes the same handler through an ngrok tunnel. The auth
// token comes from NGROK_AUTHTOKEN.
func serveNgrok(ctx context.Context, domain string, handler http.Handler, log *zap.Logger) error {
	token := os.Getenv("NGROK_AUTHTOKEN")
	if token == "" {
		return errors.New("ngrok enabled but NGROK_AUTHTOKEN is not set")
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(token))
	if err != nil {
		return fmt.Errorf("ngrok listen failed: %w", err)
	}
	defer tun.Close()

	log.Info("ngrok tunnel established", zap.String("url", tun.URL()))
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func agentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "run an MCP stdio server for AI agents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "ws://localhost:8080/player_endpoint",
				Usage: "game server WebSocket URL",
			},
		},
		Action: runAgent,
	}
}

func runAgent(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.Init(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer logger.Sync()

	s := mcp.NewServer(cmd.String("server"), log)
	log.Info("MCP stdio server ready", zap.String("server", cmd.String("server")))
	if err := mcpserver.ServeStdio(s.MCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}
