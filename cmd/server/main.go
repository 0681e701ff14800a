package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/statelessauth/internal/server"
	"github.com/dmitrijs2005/statelessauth/internal/server/config"
)

func main() {

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}
