package cli

import (
	"context"
	"flag"
	"fmt"
)

func newLogoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Description: "Clear the stored credential",
		Flags:       flag.NewFlagSet("logout", flag.ExitOnError),
		Run:         runLogout,
	}
}

func runLogout(args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.sess.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	app.store.Clear()

	fmt.Println("Logged out.")
	return nil
}
