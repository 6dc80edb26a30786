package main

import (
	"context"
	"time"

	"github.com/niksmo/e-label/config"
	"github.com/niksmo/e-label/internal/app"
	"github.com/niksmo/e-label/pkg/sigctx"
)

const closeTimeout = 5 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	elabelService := app.New(sigCtx, cfg)

	elabelService.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	elabelService.Close(ctx)
}
