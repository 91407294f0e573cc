package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trueeth/cw20-reflection/internal/config"
	"github.com/trueeth/cw20-reflection/internal/core/ledger/genesis"
	"github.com/trueeth/cw20-reflection/internal/core/ledger/service"
	"github.com/trueeth/cw20-reflection/internal/rpc"
	"github.com/trueeth/cw20-reflection/internal/storage/nodestore"
	"github.com/trueeth/cw20-reflection/internal/storage/txindex"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the reflectd daemon",
	Long: `Start the reflectd server which provides:
- HTTP JSON-RPC API
- WebSocket server with the transfers event stream
- Health check endpoint

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	genesisCfg := genesis.DefaultConfig()
	if cfg.GenesisFile != "" {
		genesisCfg, err = genesis.Load(cfg.GenesisFile)
		if err != nil {
			return fmt.Errorf("failed to load genesis: %w", err)
		}
	}

	nodeStore, err := nodestore.Open(&cfg.NodeDB)
	if err != nil {
		return fmt.Errorf("failed to open node store: %w", err)
	}
	defer nodeStore.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := txindex.Open(ctx, &cfg.TxIndex)
	if err != nil {
		return fmt.Errorf("failed to open transaction index: %w", err)
	}
	defer index.Close()

	hub := rpc.NewWebSocketServer(nil)
	defer hub.Close()

	svc, err := service.New(service.Config{
		Genesis:   genesisCfg,
		NodeStore: nodeStore,
		TxIndex:   index,
		Publisher: hub,
		CacheSize: cfg.Server.LedgerCacheSize,
	})
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ledger service: %w", err)
	}

	rpcServer := rpc.NewServer(svc, cfg.Server.RequestTimeout)
	hub.SetRegistry(rpcServer.Registry())

	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.Handle("/rpc", rpcServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"reflectd"}`))
	})

	httpListener := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: mux}

	var wsListener *http.Server
	if cfg.Server.WSAddr != "" {
		wsMux := http.NewServeMux()
		wsMux.Handle("/", hub)
		wsMux.Handle("/ws", hub)
		wsListener = &http.Server{Addr: cfg.Server.WSAddr, Handler: wsMux}
	}

	closed, err := svc.ClosedLedger()
	if err != nil {
		return err
	}
	log.Printf("genesis ledger %d closed, hash %s", closed.Sequence(), closed.Hash())
	log.Printf("JSON-RPC listening on http://%s", cfg.Server.HTTPAddr)
	if wsListener != nil {
		log.Printf("WebSocket listening on ws://%s/ws", cfg.Server.WSAddr)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpListener.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if wsListener != nil {
		group.Go(func() error {
			if err := wsListener.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		httpListener.Shutdown(shutdownCtx)
		if wsListener != nil {
			wsListener.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	log.Printf("reflectd stopped")
	return nil
}
