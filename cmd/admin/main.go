// Command admin creates an administrator account directly in the database.
//
// Usage:
//
//	admin [-n name] [-g] [-d dsn] [-c config.json]
//
// Without -n the name is prompted for. With -g a random password is
// generated and printed instead of being read from the terminal.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/gophjournal/internal/admin"
	"github.com/dmitrijs2005/gophjournal/internal/flagx"
	"github.com/dmitrijs2005/gophjournal/internal/server"
	"github.com/dmitrijs2005/gophjournal/internal/server/config"
)

func main() {

	var (
		userName string
		generate bool
	)
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&userName, "n", "", "administrator user name")
	fs.BoolVar(&generate, "g", false, "generate a random password")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-n", "-g"}))

	if err := run(userName, generate); err != nil {
		log.Fatalf("%v", err)
	}

}

func run(userName string, generate bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Migrate(ctx); err != nil {
		return err
	}

	return admin.NewBootstrapper(app.Accounts(), os.Stdin, os.Stdout).CreateAdmin(ctx, userName, generate)
}
