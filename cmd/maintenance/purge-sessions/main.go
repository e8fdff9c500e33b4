package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/database"
	"github.com/azvaska/flight-gorilla-sub000/internal/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	var dbURLFlag string
	var grayFlag time.Duration
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.DurationVar(&grayFlag, "gray-period", 2*time.Minute, "grace period kept after a session ends")
	flag.Parse()

	// Optional .env in the working directory keeps secrets off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             os.Getenv("DATABASE_DRIVER"),
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before, err := countSessions(ctx, db)
	if err != nil {
		log.Fatalf("failed to count seat sessions: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := services.NewSeatSessionService(
		db.DB,
		database.NewSeatSessionRepository(db.DB),
		database.NewFlightRepository(db.DB),
		nil,
		config.SessionConfig{GrayPeriod: grayFlag},
		logger,
	)

	removed, err := sessions.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge seat sessions: %v", err)
	}

	after, err := countSessions(ctx, db)
	if err != nil {
		log.Fatalf("failed to count seat sessions: %v", err)
	}

	fmt.Printf("Seat sessions before: %d\n", before)
	fmt.Printf("Expired sessions removed: %d\n", removed)
	fmt.Printf("Seat sessions after: %d\n", after)
}

func countSessions(ctx context.Context, db *database.PostgresDB) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM seat_sessions`)
	return n, err
}
