package main

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipts-parser/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over gRPC until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				if !cmd.Flags().Changed("addr") {
					addr = a.cfg.Server.GRPCAddr
				}
				lis, err := net.Listen("tcp", addr)
				if err != nil {
					a.logger.Error("failed to listen", "addr", addr, "error", err)
					return err
				}

				grpcServer, health := server.New(a.processor, a.logger)
				serveErr := make(chan error, 1)
				go func() {
					serveErr <- grpcServer.Serve(lis)
				}()
				a.logger.Info("receipt-parse listening", "addr", lis.Addr().String())

				select {
				case err := <-serveErr:
					a.logger.Error("gRPC serve error", "error", err)
					return err
				case <-ctx.Done():
				}
				health.Shutdown()
				grpcServer.GracefulStop()
				a.logger.Info("receipt-parse stopped")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to RECEIPTS_SERVER_GRPC_ADDR)")
	return cmd
}
