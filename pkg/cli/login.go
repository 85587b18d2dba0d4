package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cobaltcrm/console/pkg/session"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Store the backend credential",
		Flags:       flag.NewFlagSet("login", flag.ExitOnError),
		Run:         runLogin,
	}

	cmd.Flags.String("token", "", "Bearer token issued by the backend")
	cmd.Flags.String("token-stdin", "", "Read the token from a file, or - for stdin")

	return cmd
}

func runLogin(args []string) error {
	cmd := newLoginCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	token := cmd.Flags.Lookup("token").Value.String()
	source := cmd.Flags.Lookup("token-stdin").Value.String()

	if token == "" && source != "" {
		data, err := readTokenSource(source)
		if err != nil {
			return err
		}
		token = data
	}
	if token == "" {
		return fmt.Errorf("a token is required (use --token or --token-stdin)")
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.sess.Save(ctx, session.Credential{Token: token, IssuedAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	// prove the credential works before declaring success
	if err := app.store.Refresh(ctx); err != nil {
		return err
	}
	snap := app.store.Snapshot()
	if snap.Len() == 0 {
		fmt.Println("Logged in, but the backend reports no permissions for this subject.")
		return nil
	}

	fmt.Printf("Logged in with %d permission grants.\n", snap.Len())
	return nil
}

func readTokenSource(source string) (string, error) {
	if source == "-" {
		var token string
		if _, err := fmt.Fscanln(os.Stdin, &token); err != nil {
			return "", fmt.Errorf("failed to read token from stdin: %w", err)
		}
		return strings.TrimSpace(token), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
