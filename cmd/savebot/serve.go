package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/gydisme/savebot/internal/channel/adapters/line"
	"github.com/gydisme/savebot/internal/channel/adapters/telegram"
	"github.com/gydisme/savebot/internal/commands"
	"github.com/gydisme/savebot/internal/config"
	"github.com/gydisme/savebot/internal/gdocs"
	"github.com/gydisme/savebot/internal/handlers"
	"github.com/gydisme/savebot/internal/i18n"
	"github.com/gydisme/savebot/internal/logger"
	"github.com/gydisme/savebot/internal/save"
	"github.com/gydisme/savebot/internal/server"
	"github.com/gydisme/savebot/internal/settings"
	"github.com/gydisme/savebot/internal/webmeta"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideI18n,
			provideSettings,
			provideFetcher,
			provideGDocsClient,
			provideSaveService,
			provideQueue,
			provideLineAdapter,
			provideTelegramAdapter,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideLineHandler),
			provideServer,
		),
		fx.Invoke(
			startTelegramAdapter,
			startServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideI18n(cfg config.Config) (*i18n.Service, error) {
	return i18n.NewService(cfg.I18n.DefaultLanguage)
}

func provideSettings(cfg config.Config, log *slog.Logger) (*settings.Store, error) {
	return settings.NewStore(cfg.Save.SettingsPath, log)
}

func provideFetcher(cfg config.Config, log *slog.Logger) *webmeta.Fetcher {
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	return webmeta.NewFetcher(timeout, cfg.Fetch.UserAgent, log)
}

func provideGDocsClient(cfg config.Config, log *slog.Logger) (*gdocs.Client, error) {
	return gdocs.NewClient(context.Background(), gdocs.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		FolderID:        cfg.Google.FolderID,
	}, log)
}

func provideSaveService(client *gdocs.Client, fetcher *webmeta.Fetcher, log *slog.Logger) *save.Service {
	return save.NewService(client, fetcher, log)
}

func provideQueue(lc fx.Lifecycle, cfg config.Config, service *save.Service, log *slog.Logger) *save.Queue {
	queue := save.NewQueue(service, cfg.Save.Workers, log)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		queue.Shutdown()
		return nil
	}})
	return queue
}

func provideLineAdapter(cfg config.Config, service *save.Service, queue *save.Queue, store *settings.Store, i18nSvc *i18n.Service, log *slog.Logger) (*line.Adapter, error) {
	if !cfg.LINE.Enabled {
		return nil, nil
	}
	adapter, err := line.NewAdapter(line.Config{
		ChannelSecret:      cfg.LINE.ChannelSecret,
		ChannelAccessToken: cfg.LINE.ChannelAccessToken,
	}, queue, store, i18nSvc, log)
	if err != nil {
		return nil, err
	}
	adapter.SetRegistry(commands.NewRegistry(log,
		commands.StandardSet(line.Platform, service, queue, adapter, store, i18nSvc, log)...))
	return adapter, nil
}

func provideTelegramAdapter(cfg config.Config, service *save.Service, queue *save.Queue, store *settings.Store, i18nSvc *i18n.Service, log *slog.Logger) (*telegram.Adapter, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	adapter, err := telegram.NewAdapter(cfg.Telegram.BotToken, queue, store, i18nSvc, log)
	if err != nil {
		return nil, err
	}
	adapter.SetRegistry(commands.NewRegistry(log,
		commands.StandardSet(telegram.Platform, service, queue, adapter, store, i18nSvc, log)...))
	return adapter, nil
}

func provideLineHandler(adapter *line.Adapter, log *slog.Logger) *handlers.LineHandler {
	if adapter == nil {
		return handlers.NewLineHandler(nil, log)
	}
	return handlers.NewLineHandler(adapter, log)
}

type serverParams struct {
	fx.In
	Config   config.Config
	Logger   *slog.Logger
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Config.Server.Addr, params.Logger, params.Handlers...)
}

func startTelegramAdapter(lc fx.Lifecycle, adapter *telegram.Adapter, log *slog.Logger) {
	if adapter == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := adapter.Start(ctx); err != nil && ctx.Err() == nil {
					log.Error("telegram adapter stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, srv *server.Server, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("http server stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
