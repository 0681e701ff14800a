package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/statelessauth/internal/client/cli"
	"github.com/dmitrijs2005/statelessauth/internal/client/config"
)

func main() {

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: statelessauth-client [-s url] [-u username] [-timeout 10s] [whoami|users]\n%v\n", err)
		os.Exit(2)
	}

	if err := cli.NewApp(cfg, os.Stdout).Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
