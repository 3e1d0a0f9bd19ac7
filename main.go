package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"healcure/app/api"
	"healcure/app/client/gemini"
	"healcure/app/client/openai"
	"healcure/app/client/speechkit"
	"healcure/app/config"
	"healcure/app/service/conversation"
	"healcure/app/service/detection"
	"healcure/app/service/engine"
	"healcure/app/service/generator"
	"healcure/app/service/mcpserver"
	"healcure/app/service/places"
	"healcure/app/service/queue"
	"healcure/app/service/speech"
	"healcure/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, gemini.NewClient)
	do.Provide(di, openai.NewClient)
	do.Provide(di, speechkit.NewClient)
	do.Provide(di, generator.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, speech.New)
	do.Provide(di, conversation.New)
	do.Provide(di, detection.New)
	do.Provide(di, places.New)
	do.Provide(di, mcpserver.New)
	do.Provide(di, api.New)

	do.Provide(di, func(i *do.Injector) (conversation.AnswerGenerator, error) {
		return do.Invoke[*generator.Service](i)
	})
	do.Provide(di, func(i *do.Injector) (conversation.Dispatcher, error) {
		return do.Invoke[*engine.Service](i)
	})
	do.Provide(di, func(i *do.Injector) (conversation.VoiceProvider, error) {
		return do.Invoke[*speech.Service](i)
	})

	server := do.MustInvoke[*api.Server](di)

	slog.Info("Service started",
		"generator", cfg.Generator.Backend,
		"speech", cfg.Speech.Backend,
		"mcp", cfg.MCP.Enabled,
		"telegram", true,
	)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go do.MustInvoke[*engine.Service](di).Run(appCtx)
	go do.MustInvoke[*conversation.Service](di).RunJanitor(appCtx)

	go func() {
		if err := server.Listen(); err != nil {
			slog.Error("HTTP server stopped", "error", err)
			cancel()
		}
	}()

	<-appCtx.Done()
}
