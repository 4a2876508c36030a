package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/ambient-mixer/internal/mixer"
	"github.com/hazadus/ambient-mixer/internal/ws"
)

const shutdownTimeout = 5 * time.Second

// createServeCommand создает команду serve с привязкой к экземпляру приложения
func (app *Application) createServeCommand(ctx context.Context) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mixer UI in a browser",
		Long:  `Run the mixer as a daemon and control it from a browser page over websocket.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if addr != "" {
				app.Config.ListenAddr = addr
			}
			return app.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

// handleIntent выполняет намерение клиента в цикле микшера
func (app *Application) handleIntent(loop *eventLoop, m *mixer.Mixer) func(mixer.Event) {
	return func(event mixer.Event) {
		loop.Dispatch(func() {
			m.Handle(context.Background(), event)
		})
	}
}

// snapshot снимает состояние микшера в его цикле
func snapshot(loop *eventLoop, m *mixer.Mixer) ws.SnapshotFunc {
	return func(ctx context.Context) (ws.Snapshot, error) {
		var snap ws.Snapshot
		err := loop.Call(ctx, func() { snap = ws.NewSnapshot(m) })
		return snap, err
	}
}

func (app *Application) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := newEventLoop()
	sess, err := app.newSession(loop.Dispatch)
	if err != nil {
		return err
	}

	server := ws.NewServer(app.Logger, ws.ServerConfig{
		Intents:  app.handleIntent(loop, sess.mixer),
		Snapshot: snapshot(loop, sess.mixer),
	})
	sess.mixer.SetPresenter(mixer.Presenters{ws.NewPresenter(server.Hub(), app.Logger)})

	go loop.Run(ctx)
	go server.Hub().Run(ctx)

	mux := http.NewServeMux()
	server.Register(mux, "/ws")

	httpServer := &http.Server{
		Addr:              app.Config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	fmt.Printf("🎧 Микшер доступен по адресу http://%s\n", app.Config.ListenAddr)
	fmt.Printf("   [Ctrl+C] - остановить\n")
	app.Logger.Info("http server starting", "addr", app.Config.ListenAddr)

	select {
	case err := <-errCh:
		stop()
		<-loop.done
		sess.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\n⏹️  Останавливаем микшер...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warn("http shutdown failed", "error", err)
	}
	<-loop.done
	sess.Close()
	return nil
}
