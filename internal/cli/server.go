package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goFracVault/internal/config"
	"github.com/LeJamon/goFracVault/internal/di"
	"github.com/LeJamon/goFracVault/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds draining in-flight requests on exit
const shutdownTimeout = 10 * time.Second

var (
	// Server flags
	port       int
	bindAddr   string
	standalone bool
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the fracvaultd server",
	Long: `Start the fracvaultd server which provides:
- HTTP JSON-RPC API on / and /rpc
- Websocket commands and the records stream on /ws
- Health check endpoint on /health

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer

	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to (overrides server.bind)")
	serverCmd.Flags().BoolVar(&standalone, "standalone", false, "allow account_fund (overrides server.standalone)")
}

// applyServerFlags overrides configuration with flags the user set.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("bind") {
		cfg.Server.Bind = bindAddr
	}
	if flags.Changed("standalone") {
		cfg.Server.Standalone = standalone
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyServerFlags(cmd, cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger, cleanup, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cmd, cfg, logger)
}

// serve runs the API until ctx is done, then shuts it down and releases
// storage.
func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (err error) {
	container := di.New()
	provider := di.NewProvider(ctx, container, cfg, logger)
	if err := provider.RegisterAll(); err != nil {
		return err
	}
	defer func() {
		if cerr := container.Close(); cerr != nil {
			logger.Error("closing services", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	svc, err := provider.GetRPCService()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Server.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if !quiet {
		addr := listener.Addr().String()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting fracvaultd")
		fmt.Fprintf(out, "  - HTTP JSON-RPC: http://%s/\n", addr)
		fmt.Fprintf(out, "  - Websocket:     ws://%s/ws\n", addr)
		fmt.Fprintf(out, "  - Health Check:  http://%s/health\n", addr)
		fmt.Fprintf(out, "  - Storage:       %s\n", cfg.Storage.Backend)
		fmt.Fprintf(out, "  - Record index:  %s\n", cfg.Index.Driver)
		if cfg.Server.Standalone {
			fmt.Fprintln(out, "  - Standalone:    account_fund enabled")
		}
	}

	logger.Info("server starting",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("standalone", cfg.Server.Standalone))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Serve(listener)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return svc.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
