// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tabulate",
		Usage: "Extract a table of attributes from a batch of documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (yaml, toml or json); TABULATE_* variables override it",
				EnvVars: []string{"TABULATE_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process a batch request and print the result",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "request",
						Aliases:  []string{"r"},
						Usage:    "Path to the batch request JSON",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory (overrides storage.path)",
					},
					&cli.StringFlag{
						Name:  "source-dir",
						Usage: "Directory documents are read from (overrides source.dir)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the result JSON here instead of stdout",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address while the batch runs",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report document progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:      "classify",
				Usage:     "Print the modality of each file name",
				ArgsUsage: "FILE...",
				Action:    classifyCommand,
			},
			{
				Name:  "batches",
				Usage: "Inspect recorded batches",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List recent batches, newest first",
						Action: listBatchesCommand,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Maximum number of batches to list",
								Value: 20,
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Print a recorded batch as JSON",
						ArgsUsage: "ID",
						Action:    showBatchCommand,
						Flags:     []cli.Flag{dbFlag()},
					},
				},
			},
			{
				Name:      "export",
				Usage:     "Export a recorded batch result as an XLSX table",
				ArgsUsage: "ID",
				Action:    exportCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "out",
						Usage:    "Path of the XLSX file to write",
						Required: true,
					},
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}
