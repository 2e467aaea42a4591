package main

import (
	"github.com/urfave/cli/v2"
)

const defaultConfigPath = "./cmd/app/config.yml"

var ctl ticketctl

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ticketctl"
	app.Usage = "operate the ceremony ticketing service"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Value:   defaultConfigPath,
			Usage:   "path to config.yml",
			EnvVars: []string{"TICKETCTL_CONFIG"},
		},
	}
	app.Before = ctl.load
	app.After = ctl.close
	app.Commands = []*cli.Command{
		{
			Action:   ctl.migrate,
			Name:     "migrate",
			Usage:    "Create or update the database schema",
			Category: "Database",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "fresh", Usage: "drop every table before migrating"},
			},
		},
		{
			Action:   ctl.issueBase,
			Name:     "issue-base",
			Usage:    "Allocate base tickets to a graduate",
			Category: "Tickets",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "graduate", Required: true},
			},
		},
		{
			Action:   ctl.regenerateQR,
			Name:     "regenerate-qr",
			Usage:    "Re-render the QR image of a ticket",
			Category: "Tickets",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "ticket", Required: true},
			},
		},
		{
			Action:      ctl.validate,
			Name:        "validate",
			Usage:       "Check a QR payload against the database without recording a scan",
			ArgsUsage:   "<payload>",
			Category:    "Tickets",
			Description: `Prints "valid" or "invalid". Exits non-zero on lookup failures only.`,
		},
		{
			Action:   ctl.redistribute,
			Name:     "redistribute",
			Usage:    "Move unused tickets to waitlisted requests",
			Category: "Requests",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "ceremony", Required: true},
			},
		},
		{
			Action:      ctl.token,
			Name:        "token",
			Usage:       "Mint a principal token for a gate device or operator",
			Category:    "Access",
			Description: `Signs with api.principal_signing_key. Meant for provisioning scanners and local testing.`,
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "user", Required: true},
				&cli.StringFlag{Name: "role", Value: "security"},
				&cli.DurationFlag{Name: "ttl", Value: defaultTokenTTL},
			},
		},
	}

	return app
}
