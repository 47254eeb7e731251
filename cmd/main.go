package main

import (
	"fmt"
	"os"

	"github.com/petrovi-4/habit-tracker-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	if err := application.Run(); err != nil {
		application.Log.Fatal("HTTP server stopped", "error", err)
	}
}
