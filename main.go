package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/mailblast/internal/app"
)

// @title           Mailblast API
// @version         1.0
// @description     Mailblast sends bulk email campaigns and streams their delivery progress.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
