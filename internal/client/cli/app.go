// Package cli runs the statelessauth client commands: it logs in with a
// prompted password and calls one endpoint with the issued token.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/client/api"
	"github.com/dmitrijs2005/statelessauth/internal/client/config"
	"github.com/dmitrijs2005/statelessauth/internal/common"
)

var ErrUnknownCommand = errors.New("unknown command")

type App struct {
	config *config.Config
	client *api.Client
	out    io.Writer
}

func NewApp(c *config.Config, out io.Writer) *App {
	return &App{config: c, client: api.NewClient(c.ServerURL, c.Timeout), out: out}
}

// Run executes the configured command.
func (app *App) Run(ctx context.Context) error {
	cmd, ok := commands[app.config.Command]
	if !ok {
		return fmt.Errorf("%w %q (want one of: %s)", ErrUnknownCommand, app.config.Command, strings.Join(commandNames(), ", "))
	}

	password, err := GetPassword(app.out, app.config.Username)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	token, err := app.client.Login(ctx, app.config.Username, password)
	common.WipeByteArray(password)
	if err != nil {
		return err
	}

	return cmd(ctx, app, token)
}

type command func(ctx context.Context, app *App, token string) error

var commands = map[string]command{
	"whoami": whoami,
	"users":  listUsers,
}

func commandNames() []string {
	return []string{"whoami", "users"}
}

func whoami(ctx context.Context, app *App, token string) error {
	me, err := app.client.Current(ctx, token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "%s [%s]\n", me.Username, strings.Join(me.Roles, ", "))
	return err
}

func listUsers(ctx context.Context, app *App, token string) error {
	users, err := app.client.ListUsers(ctx, token)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEXPIRES\tROLES")
	for _, u := range users {
		exp := "never"
		if u.Expires != 0 {
			exp = time.UnixMilli(u.Expires).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, exp, strings.Join(u.Roles, ","))
	}
	return tw.Flush()
}
