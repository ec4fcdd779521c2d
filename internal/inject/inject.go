package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/briefspark/briefspark/configs"
	"github.com/briefspark/briefspark/internal/fetch"
	"github.com/briefspark/briefspark/internal/gemini"
	"github.com/briefspark/briefspark/internal/log"
	"github.com/briefspark/briefspark/internal/page"
	"github.com/briefspark/briefspark/internal/param"
	"github.com/briefspark/briefspark/internal/proxy"
	"github.com/briefspark/briefspark/internal/server"
	"github.com/briefspark/briefspark/internal/session"
	"github.com/samber/do"
	"github.com/samber/lo"
)

func newInjector(ctx context.Context) *do.Injector {
	logger := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*http.Client](injector, http.DefaultClient)
	return injector
}

func provideFetchClient(injector *do.Injector, maxAttempts int) {
	do.Provide[*fetch.Client](injector, func(i *do.Injector) (*fetch.Client, error) {
		client := fetch.New(do.MustInvoke[*http.Client](i))
		if maxAttempts > 0 {
			client.MaxAttempts = maxAttempts
		}
		return client, nil
	})
}

// SetupStudio wires the briefspark studio process.
func SetupStudio(ctx context.Context, cfg *configs.StudioConfig) *do.Injector {
	injector := newInjector(ctx)
	do.ProvideValue[*configs.StudioConfig](injector, cfg)
	provideFetchClient(injector, cfg.MaxAttempts)

	do.Provide[*gemini.TextClient](injector, gemini.NewTextClient)
	do.Provide[gemini.Generator](injector, lo.Ternary(cfg.ProxyURL != "", gemini.NewProxyGenerator, gemini.NewImagenGenerator))

	do.Provide[session.TextGenerator](injector, func(i *do.Injector) (session.TextGenerator, error) {
		return do.MustInvoke[*gemini.TextClient](i), nil
	})
	do.Provide[session.ImageGenerator](injector, func(i *do.Injector) (session.ImageGenerator, error) {
		return do.MustInvoke[gemini.Generator](i), nil
	})
	do.Provide[*session.Registry](injector, func(i *do.Injector) (*session.Registry, error) {
		return session.NewRegistry(
			do.MustInvoke[session.TextGenerator](i),
			do.MustInvoke[session.ImageGenerator](i),
		), nil
	})

	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*server.Server](injector, server.NewServer)

	return injector
}

// SetupProxy wires the image proxy process. The credential fetcher is backed
// by SSM Parameter Store when a parameter name is configured, otherwise by
// the environment.
func SetupProxy(ctx context.Context, cfg *configs.ProxyConfig) *do.Injector {
	injector := newInjector(ctx)
	do.ProvideValue[*configs.ProxyConfig](injector, cfg)
	provideFetchClient(injector, cfg.MaxAttempts)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	if cfg.CredentialParam != "" {
		do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	} else {
		do.ProvideValue[param.Fetcher](injector, param.EnvFetcher{})
	}

	do.Provide[*proxy.Service](injector, proxy.NewService)
	do.Provide[*proxy.Handler](injector, proxy.NewHandler)
	do.Provide[*proxy.LambdaHandler](injector, proxy.NewLambdaHandler)

	return injector
}
