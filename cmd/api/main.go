package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/rivalth/kumbara/internal/bankstmt"
	"github.com/rivalth/kumbara/internal/config"
	"github.com/rivalth/kumbara/internal/database"
	kumbaraHttp "github.com/rivalth/kumbara/internal/http"
	importHandler "github.com/rivalth/kumbara/internal/http/importfile"
	txHandler "github.com/rivalth/kumbara/internal/http/transaction"
	"github.com/rivalth/kumbara/internal/importer/session"
	"github.com/rivalth/kumbara/internal/transaction"
	txStore "github.com/rivalth/kumbara/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		transactionService = transaction.NewService(txStore.New(db))
		bankService        = bankstmt.NewService(transactionService)
		sessionStore       = session.NewStore(cfg.Import.SessionTTL)
	)

	var (
		transactionH = txHandler.NewHandler(transactionService)
		importH      = importHandler.NewHandler(sessionStore, transactionService, bankService)
	)

	router := kumbaraHttp.New(transactionH, importH, cfg.Auth.JWTSecret, cfg.Server.Timeout)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
