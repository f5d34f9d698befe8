package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/yassinebk/TaleForge/internal/database"
	"github.com/yassinebk/TaleForge/internal/server"
	"github.com/yassinebk/TaleForge/internal/updater"
)

func gracefulShutdown(apiServer *http.Server, done chan bool, statusUpdater *updater.Updater) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// Stop the battle status updater before the server goes away
	statusUpdater.Stop()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	db := database.New()
	apiServer := server.NewServer(db)

	log.Println("Server is running on port: ", apiServer.Addr)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Advance battle statuses on a fixed interval, starting with an
	// immediate pass so restarts catch up right away.
	statusUpdater := updater.New(db, updater.DefaultInterval)
	statusUpdater.Start()

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done, statusUpdater)

	err := apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")
}
