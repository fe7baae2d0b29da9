package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"rollcall/internal/admin"
	"rollcall/internal/apperr"
	"rollcall/internal/config"
	"rollcall/internal/store"
)

// createadmin provisions an admin account directly in the database.
func main() {
	app := &cli.App{
		Name:  "createadmin",
		Usage: "create a dashboard admin account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
			&cli.StringFlag{Name: "email", Usage: "login email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "at least 8 characters", EnvVars: []string{"ADMIN_PASSWORD"}, Required: true},
			&cli.BoolFlag{Name: "first", Usage: "only succeed if no admin exists yet"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx, db.Client); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	admins := admin.NewService(admin.NewRepository(db.Client), nil)
	create := admins.Create
	if c.Bool("first") {
		create = admins.Bootstrap
	}
	u, err := create(ctx, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			return cli.Exit(appErr.Message, 1)
		}
		return err
	}

	fmt.Printf("admin created: %s <%s> (%s)\n", u.Name, u.Email, u.ID)
	return nil
}
