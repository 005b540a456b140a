package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

// New builds a gRPC server with the parser service, the standard health
// service reporting SERVING, and reflection for grpcurl.
func New(p Parser, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(requestLogger(logger))}, opts...)
	grpcServer := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ParserServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterParserServiceServer(grpcServer, NewParserServer(p, logger))
	reflection.Register(grpcServer)
	return grpcServer, hs
}

// requestLogger tags each call with a request id and maps application errors
// onto gRPC status codes.
func requestLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := uuid.NewString()
		ctx = common.WithRequestID(ctx, requestID)
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			err = common.GRPCStatus(err)
			logger.Warn("grpc.call.failed", "method", info.FullMethod, "request_id", requestID,
				"elapsed_ms", time.Since(start).Milliseconds(), "error", err)
			return nil, err
		}
		logger.Debug("grpc.call.ok", "method", info.FullMethod, "request_id", requestID,
			"elapsed_ms", time.Since(start).Milliseconds())
		return resp, nil
	}
}
