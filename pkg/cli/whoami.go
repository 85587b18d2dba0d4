package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/cobaltcrm/console/pkg/api"
)

func newWhoamiCommand() *Command {
	return &Command{
		Name:        "whoami",
		Description: "Dump the subject's permission grants, grouped by module",
		Flags:       flag.NewFlagSet("whoami", flag.ExitOnError),
		Run:         runWhoami,
	}
}

func runWhoami(args []string) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	grants, err := app.client.Permissions(ctx)
	if err != nil {
		return err
	}
	if len(grants) == 0 {
		fmt.Println("No permissions. Are you logged in?")
		return nil
	}

	byModule := make(map[string][]api.Grant)
	for _, g := range grants {
		byModule[g.Module] = append(byModule[g.Module], g)
	}
	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	for _, m := range modules {
		fmt.Printf("%s\n", m)
		list := byModule[m]
		sort.Slice(list, func(i, j int) bool {
			if list[i].Path != list[j].Path {
				return list[i].Path < list[j].Path
			}
			return list[i].Permission < list[j].Permission
		})
		for _, g := range list {
			fmt.Printf("  %-30s %s\n", g.Path, g.Permission)
		}
	}
	fmt.Printf("\n%d grants total.\n", len(grants))
	return nil
}
