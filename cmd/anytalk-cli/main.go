// Command anytalk-cli is a minimal host that exercises a Context end to
// end: it starts a session on launch, prints partial/final transcripts as
// they arrive, and stops cleanly on Ctrl+C.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anytalk/anytalk-go"
)

func main() {
	os.Exit(run())
}

func run() int {
	appID := flag.String("app-id", os.Getenv("ANYTALK_APP_ID"), "vendor app ID")
	accessToken := flag.String("access-token", os.Getenv("ANYTALK_ACCESS_TOKEN"), "vendor access token")
	mode := flag.String("mode", string(anytalk.DefaultMode), "session mode: bidi, bidi_async, nostream")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *appID == "" || *accessToken == "" {
		fmt.Fprintln(os.Stderr, "anytalk-cli: -app-id and -access-token are required (or ANYTALK_APP_ID / ANYTALK_ACCESS_TOKEN)")
		return 1
	}

	cfg := anytalk.Config{AppID: *appID, AccessToken: *accessToken, Mode: anytalk.Mode(*mode)}

	ctx := anytalk.NewContext(cfg, func(evt anytalk.Event) {
		switch evt.Type {
		case anytalk.EventPartial:
			fmt.Printf("\r%s...", evt.Text)
		case anytalk.EventFinal:
			fmt.Printf("\r%s\n", evt.Text)
		case anytalk.EventStatus:
			slog.Info("status", "value", evt.Text)
		case anytalk.EventError:
			slog.Error("session error", "message", evt.Text)
		}
	}, anytalk.WithLogger(logger))
	defer ctx.Destroy()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctx.Start(sigCtx); err != nil {
		slog.Error("failed to start session", "err", err)
		return 1
	}
	slog.Info("recording — press Ctrl+C to stop")

	<-sigCtx.Done()
	ctx.Stop()
	return 0
}
