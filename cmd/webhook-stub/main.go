// Command webhook-stub serves a local stand-in for the voicechat auth API
// and webhook backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cosap/voicechat/stub"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:8787", "listen address")
	user := flag.String("user", "demo", "accepted username")
	password := flag.String("password", "demo", "accepted password")
	key := flag.String("key", "voicechat-stub", "token signing key")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := stub.New(
		stub.WithUser(stub.User{ID: 1, Username: *user, Password: *password}),
		stub.WithSigningKey([]byte(*key)),
		stub.WithTokenTTL(*ttl),
		stub.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr, "auth_base_url", "http://"+*addr+"/api", "webhook_base_url", "http://"+*addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
