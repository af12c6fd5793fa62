package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AIWebFAZ/frdfund/internal/config"
	"github.com/AIWebFAZ/frdfund/internal/database"
	"github.com/AIWebFAZ/frdfund/internal/server"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	db, err := database.Open(cfg.DBDSN, log.Named("database"))
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword, log.Named("database"))

	r, recorder := server.NewRouter(cfg, db, log)
	defer recorder.Wait()

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
