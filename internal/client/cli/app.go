package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/client/client"
	"github.com/dmitrijs2005/proofofplace/internal/client/config"
	"github.com/dmitrijs2005/proofofplace/internal/client/services"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	service services.AttestService
	keys    *nostrx.Keys
	Mode    Mode
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  c,
		service: services.NewAttestService(apiClient),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	if c.SecretKey != "" {
		k, err := nostrx.KeysFromSecret(c.SecretKey)
		if err != nil {
			_ = apiClient.Close()
			return nil, err
		}
		app.keys = k
	}

	return app, nil
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.service.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.keys != nil
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.service.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

// withTimeout bounds a single server call by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
