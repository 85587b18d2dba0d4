package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/cobaltcrm/console/pkg/navigation"
)

func newNavCommand() *Command {
	cmd := &Command{
		Name:        "nav",
		Description: "Render the navigation tree visible to the subject",
		Flags:       flag.NewFlagSet("nav", flag.ExitOnError),
		Run:         runNav,
	}

	cmd.Flags.String("route", "", "Current route, for expansion markers")

	return cmd
}

func runNav(args []string) error {
	cmd := newNavCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	route := cmd.Flags.Lookup("route").Value.String()

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.startup(ctx); err != nil {
		return err
	}
	if route != "" {
		app.builder.SetRoute(route)
	}

	tree := app.builder.Tree()
	if len(tree.Modules) == 0 {
		fmt.Println("No visible navigation entries.")
		return nil
	}

	for _, mod := range tree.Modules {
		fmt.Printf("%s%s\n", mod.Name, expansionMarker(mod.Expanded))
		for _, menu := range mod.Menus {
			printMenu(menu, 1)
		}
	}
	return nil
}

func printMenu(menu navigation.Menu, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s (%s)%s\n", indent, menu.Name, menu.Path, expansionMarker(menu.Expanded))
	for _, child := range menu.Children {
		printMenu(child, depth+1)
	}
}

func expansionMarker(expanded bool) string {
	if expanded {
		return " *"
	}
	return ""
}
