package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/cobaltcrm/console/pkg/matrix"
)

func newMatrixCommand() *Command {
	return &Command{
		Name:        "matrix",
		Description: "Inspect and edit one role's permission grid",
		Flags:       flag.NewFlagSet("matrix", flag.ExitOnError),
		Run:         runMatrix,
	}
}

func runMatrix(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: matrix <show|toggle|toggle-column|toggle-row> [flags]")
	}

	switch args[0] {
	case "show":
		return runMatrixShow(args[1:])
	case "toggle":
		return runMatrixToggle(args[1:])
	case "toggle-column":
		return runMatrixToggleColumn(args[1:])
	case "toggle-row":
		return runMatrixToggleRow(args[1:])
	default:
		return fmt.Errorf("unknown matrix subcommand: %s", args[0])
	}
}

func newMatrixEditor(ctx context.Context, app *app, roleID int64) (*matrix.Editor, error) {
	if roleID <= 0 {
		return nil, fmt.Errorf("--role is required")
	}

	editor := matrix.NewEditor(matrix.EditorConfig{
		Backend:  app.client,
		Notifier: app.notifier,
		Logger:   app.log,
	})
	if _, err := editor.LoadRole(ctx, roleID); err != nil {
		return nil, err
	}
	return editor, nil
}

func runMatrixShow(args []string) error {
	flags := flag.NewFlagSet("matrix show", flag.ExitOnError)
	roleID := flags.Int64("role", 0, "Role id")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	editor, err := newMatrixEditor(ctx, app, *roleID)
	if err != nil {
		return err
	}

	rows := editor.Rows()
	if len(rows) == 0 {
		fmt.Println("No modules assigned to this role.")
		return nil
	}

	for _, row := range rows {
		fmt.Printf("%s (module %d)\n", row.Module.Name, row.Module.ID)
		for _, menu := range row.Menus {
			names := make([]string, 0, len(menu.Permissions))
			for name := range menu.Permissions {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("  %-25s (menu %d)", menu.Name, menu.ID)
			for _, name := range names {
				cell := menu.Permissions[name]
				mark := " "
				if cell.Granted {
					mark = "x"
				}
				fmt.Printf("  [%s] %s(%d)", mark, name, cell.PermissionID)
			}
			fmt.Println()
		}
	}
	return nil
}

func runMatrixToggle(args []string) error {
	flags := flag.NewFlagSet("matrix toggle", flag.ExitOnError)
	roleID := flags.Int64("role", 0, "Role id")
	moduleID := flags.Int64("module", 0, "Module id")
	menuID := flags.Int64("menu", 0, "Menu id")
	permID := flags.Int64("permission", 0, "Permission id")
	if err := flags.Parse(args); err != nil {
		return err
	}

	return withEditor(*roleID, func(ctx context.Context, editor *matrix.Editor) error {
		if err := editor.Toggle(*moduleID, *menuID, *permID); err != nil {
			return err
		}
		return saveAndReport(ctx, editor)
	})
}

func runMatrixToggleColumn(args []string) error {
	flags := flag.NewFlagSet("matrix toggle-column", flag.ExitOnError)
	roleID := flags.Int64("role", 0, "Role id")
	column := flags.String("column", "", "Permission column name, e.g. Edit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *column == "" {
		return fmt.Errorf("--column is required")
	}

	return withEditor(*roleID, func(ctx context.Context, editor *matrix.Editor) error {
		if err := editor.ToggleColumn(*column); err != nil {
			return err
		}
		return saveAndReport(ctx, editor)
	})
}

func runMatrixToggleRow(args []string) error {
	flags := flag.NewFlagSet("matrix toggle-row", flag.ExitOnError)
	roleID := flags.Int64("role", 0, "Role id")
	moduleID := flags.Int64("module", 0, "Module id")
	menuID := flags.Int64("menu", 0, "Menu id")
	if err := flags.Parse(args); err != nil {
		return err
	}

	return withEditor(*roleID, func(ctx context.Context, editor *matrix.Editor) error {
		if err := editor.ToggleRow(*moduleID, *menuID); err != nil {
			return err
		}
		return saveAndReport(ctx, editor)
	})
}

func withEditor(roleID int64, fn func(ctx context.Context, editor *matrix.Editor) error) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	editor, err := newMatrixEditor(ctx, app, roleID)
	if err != nil {
		return err
	}
	return fn(ctx, editor)
}

func saveAndReport(ctx context.Context, editor *matrix.Editor) error {
	staged := editor.PendingCount()
	if err := editor.Save(ctx); err != nil {
		return err
	}
	fmt.Printf("Saved %d change(s) for role %d.\n", staged, editor.RoleID())
	return nil
}
