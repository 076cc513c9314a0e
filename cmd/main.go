package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"QuickBill305/api/auth"
	"QuickBill305/internal/appmanager"
	"QuickBill305/internal/logger"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file with DB_* settings")
	servicesFile := flag.String("services", "services.yaml", "service sequence")
	flag.Parse()

	// Load .env for local dev; real environments set the variables directly
	_ = godotenv.Load(*envFile)

	// database/sql handle for auth
	db, err := auth.InitDB()
	if err != nil {
		log.Fatal("failed to open auth DB:", err)
	}
	defer db.Close()
	appmanager.SetDB(db)

	// pgx pool for the fee tables
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := pgxpool.New(ctx, auth.PostgresURL())
	if err == nil {
		err = pool.Ping(ctx)
	}
	cancel()
	if err != nil {
		log.Fatal("failed to connect to pgx pool:", err)
	}
	defer pool.Close()
	appmanager.SetPgxPool(pool)

	manager := appmanager.NewAppManager()

	servicesCfg, err := appmanager.LoadServiceSequence(*servicesFile)
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}
	manager.AutoRegisterServices(servicesCfg)

	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}
	logger.GlobalLogger.LogAudit("QuickBill 305 fee import started", zap.Int("services", len(servicesCfg)))

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.L().Info("shutting down", zap.String("signal", sig.String()))

	if err := manager.StopAll(); err != nil {
		log.Println("failed to stop:", err)
	}
}
