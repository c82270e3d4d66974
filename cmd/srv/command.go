package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "Immersion"
	s.app.Usage = "Progression and achievement engine of immersion logs"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path of the toml config file",
			EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "Path of the .env file, it is ignored if not exists",
		},
	}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used to start the api serving immersion logs, progression and achievements.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Used to start the nightly recalculation of all users.`,
		},
		{
			Action: s.startRecalculate,
			Name:   "recalculate",
			Usage:  "Recalculate progression",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "user",
					Usage: "Only recalculate this user",
				},
			},
			Category:    "Worker",
			Description: `Used to recalculate progression of one user or all users once.`,
		},
		{
			Action: s.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "Only apply this migrator version",
				},
			},
			Category:    "Database",
			Description: `Used to create the schema, apply migrators and seed the achievement catalog.`,
		},
	}
}
