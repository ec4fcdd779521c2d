package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/inject"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/briefspark/briefspark/internal/proxy"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := log.New(os.Stderr)
	ctx := log.NewContext(context.Background(), logger)

	cfg, err := configs.LoadProxy()
	if err != nil {
		logger.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	injector := inject.SetupProxy(ctx, cfg)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler := do.MustInvoke[*proxy.LambdaHandler](injector)
		lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return
	}

	handler := do.MustInvoke[*proxy.Handler](injector)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Routes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("image proxy listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("image proxy stopped", "err", err)
		os.Exit(1)
	}
	_ = injector.Shutdown()
}
