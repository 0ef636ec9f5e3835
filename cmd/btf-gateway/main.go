// Command btf-gateway serves the BTF-2300 read API over HTTP.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/boostify/btf2300-sdk-go/internal/api"
	"github.com/boostify/btf2300-sdk-go/pkg/config"
	"github.com/boostify/btf2300-sdk-go/pkg/sdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configPath = flag.StringP("config", "c", "", "Path to configuration file (BTF_* environment variables override it)")
	addr       = flag.String("addr", ":8080", "HTTP listen address")
	origins    = flag.StringSlice("cors-origin", []string{"*"}, "Allowed CORS origins")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := sdk.New(cfg, sdk.WithRegisterer(reg))
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if h := client.Health(ctx); !h.OK {
		zap.L().Warn("Chain not reachable at startup", zap.String("error", h.Error))
	}

	srv, err := api.NewServer(client, zap.L(), api.Options{
		Addr:           *addr,
		AllowedOrigins: *origins,
		Metrics:        client.Metrics().Handler(),
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := srv.Run(ctx); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
