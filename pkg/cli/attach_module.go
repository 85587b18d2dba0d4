package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/cobaltcrm/console/pkg/matrix"
)

func newAttachModuleCommand() *Command {
	cmd := &Command{
		Name:        "attach-module",
		Description: "Attach an unassigned module to a role with nothing granted",
		Flags:       flag.NewFlagSet("attach-module", flag.ExitOnError),
		Run:         runAttachModule,
	}

	cmd.Flags.Int64("role", 0, "Role id")
	cmd.Flags.Int64("module", 0, "Module id to attach; omit to list unassigned modules")

	return cmd
}

func runAttachModule(args []string) error {
	cmd := newAttachModuleCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	roleID, err := lookupInt64(cmd.Flags, "role")
	if err != nil {
		return err
	}
	moduleID, err := lookupInt64(cmd.Flags, "module")
	if err != nil {
		return err
	}

	return withEditor(roleID, func(ctx context.Context, editor *matrix.Editor) error {
		if moduleID == 0 {
			unassigned, err := editor.UnassignedModules(ctx)
			if err != nil {
				return err
			}
			if len(unassigned) == 0 {
				fmt.Println("Every module is already assigned to this role.")
				return nil
			}
			fmt.Println("Unassigned modules:")
			for _, m := range unassigned {
				fmt.Printf("  %-4d %s\n", m.ID, m.Name)
			}
			return nil
		}

		if err := editor.AttachModule(ctx, moduleID); err != nil {
			return err
		}
		fmt.Printf("Module %d attached to role %d with no permissions granted.\n", moduleID, roleID)
		fmt.Println("Use `console-cli matrix show` to grant individual permissions.")
		return nil
	})
}

func lookupInt64(flags *flag.FlagSet, name string) (int64, error) {
	getter, ok := flags.Lookup(name).Value.(flag.Getter)
	if !ok {
		return 0, fmt.Errorf("flag %s is not readable", name)
	}
	v, ok := getter.Get().(int64)
	if !ok {
		return 0, fmt.Errorf("flag %s is not an integer", name)
	}
	return v, nil
}
