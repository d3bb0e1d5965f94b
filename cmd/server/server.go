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

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	store, err := server.OpenStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := Server{
		GameServer: server.NewGameServer(cfg, store, log.WithField("port", cfg.Port)),
	}
	go s.GameServer.Loop(ctx)
	s.routes()

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     s.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdown); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.Infof("listening on :%s", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalln(err)
	}
}
