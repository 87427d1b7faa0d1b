package main

import (
	"context"
	"log"
	"os"

	"archivo-storage-api/internal"
)

func main() {
	ctx := context.Background()

	app, err := internal.NewApp(ctx)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer app.Close()

	if err = app.InitControllers(ctx); err != nil {
		log.Fatalf("init controllers failed: %v", err)
	}

	if err = app.Run(ctx); err != nil {
		app.Logger().Sugar().Errorf("archivostore stopped with error: %v", err)
		os.Exit(1)
	}
}
