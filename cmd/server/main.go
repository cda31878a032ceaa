// Command server runs the instagram_backend HTTP service.
package main

import (
	"log"

	"github.com/patric-chuzhbe/instabackend/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalf("unable to start: %v", err)
	}

	err = theApp.Run()
	theApp.Close()
	if err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
