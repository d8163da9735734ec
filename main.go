package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/cmd"
	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/logger"
)

func main() {
	defer logger.HandlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
