// Package cli provides the console command-line interface for session and
// permission administration.
//
// # Overview
//
// This package implements the `console-cli` tool for operators to log in,
// inspect their own grants, render the permission-filtered navigation tree,
// and administer role-permission matrices from the terminal.
//
// # Commands
//
// login: Store the backend credential
//
//	console-cli login --token <bearer-token>
//
// logout: Clear the stored credential
//
//	console-cli logout
//
// whoami: Dump the subject's grants, grouped by module
//
//	console-cli whoami
//
// nav: Render the navigation tree visible to the subject
//
//	console-cli nav --route /leads
//
// matrix: Inspect and edit one role's permission grid
//
//	console-cli matrix show --role 3
//	console-cli matrix toggle --role 3 --module 1 --menu 10 --permission 101
//	console-cli matrix toggle-column --role 3 --column Edit
//	console-cli matrix toggle-row --role 3 --module 1 --menu 10
//
// attach-module: Attach an unassigned module to a role with nothing granted
//
//	console-cli attach-module --role 3 --module 4
package cli
