//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ecat-io/dataplane-master/internal/app"
	"github.com/ecat-io/dataplane-master/internal/config"
	"github.com/ecat-io/dataplane-master/internal/logging"
	"github.com/ecat-io/dataplane-master/internal/transport"
	"github.com/ecat-io/dataplane-master/internal/wire"
	"github.com/ecat-io/dataplane-master/internal/xcmd"
)

var runCmdArgs struct {
	ConfigPath string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the master's cyclic domain engine and gRPC health service",
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(); err != nil {
			var interrupted xcmd.Interrupted
			if errors.As(err, &interrupted) {
				return
			}
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&runCmdArgs.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	runCmd.MarkFlagRequired("config")
}

func run() error {
	cfg, err := config.Load(runCmdArgs.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, _, err := logging.Init(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer log.Sync()

	rawTransport, err := app.WithRawTransport(cfg, log)
	if err != nil {
		return fmt.Errorf("setting up raw transport: %w", err)
	}

	master, err := app.New(cfg, log, rawTransport)
	if err != nil {
		return fmt.Errorf("constructing master: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	wg, ctx := errgroup.WithContext(context.Background())

	wg.Go(func() error {
		return master.LinkMonitor().Run(ctx)
	})

	wg.Go(func() error {
		// WaitForLink only returns false when ctx is canceled, in which
		// case some other goroutine already owns the real shutdown
		// reason; nothing further to report here.
		transport.WaitForLink(ctx, master.LinkMonitor(), wire.DeviceMain, log)
		return nil
	})

	wg.Go(func() error {
		log.Infow("gRPC health server listening", "addr", cfg.ListenAddr)
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})

	wg.Go(func() error {
		ticker := time.NewTicker(cfg.CycleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := master.RunCycle(ctx); err != nil {
					log.Warnw("cycle failed", "error", err)
				}
			}
		}
	})

	wg.Go(func() error {
		app.RunHealthReporter(ctx, master, healthServer, cfg.CycleInterval, log)
		return nil
	})

	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		log.Infow("shutting down", "reason", err)
		grpcServer.GracefulStop()
		return err
	})

	return wg.Wait()
}
