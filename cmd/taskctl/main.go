// Command taskctl is a terminal front end for the task API.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mdadnanhusaain/ToDo-List/client"
	"github.com/spf13/cobra"
)

var Version = "dev"

// session is the state shared by every subcommand of one invocation.
type session struct {
	cfg        *Config
	api        client.API
	controller *client.Controller
	out        io.Writer
	errOut     io.Writer
	json       bool
}

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A nil api means an HTTP client built
// from configuration.
func newRootCmd(api client.API) *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - manage your daily tasks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd, api)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if s.controller != nil {
				s.controller.Close()
			}
		},
	}

	rootCmd.PersistentFlags().String("api-url", "", "task API base URL (default "+defaultAPIURL+")")
	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.taskctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&s.json, "json", false, "output as JSON")

	rootCmd.AddCommand(todayCmd(s))
	rootCmd.AddCommand(dayCmd(s))
	rootCmd.AddCommand(weekCmd(s))
	rootCmd.AddCommand(listCmd(s))
	rootCmd.AddCommand(addCmd(s))
	rootCmd.AddCommand(editCmd(s))
	rootCmd.AddCommand(toggleCmd(s))
	rootCmd.AddCommand(rmCmd(s))
	rootCmd.AddCommand(searchCmd(s))

	return rootCmd
}

func (s *session) open(cmd *cobra.Command, api client.API) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.location()
	if err != nil {
		return err
	}

	if api == nil {
		httpClient := client.NewHTTPClient(cfg.APIURL)
		if cfg.Timeout > 0 {
			httpClient.Timeout = cfg.Timeout
		}
		api = httpClient
	}

	s.cfg = cfg
	s.api = api
	s.out = cmd.OutOrStdout()
	s.errOut = cmd.ErrOrStderr()
	s.controller = client.NewController(api,
		client.FileSettings{Path: cfg.SettingsPath},
		client.WithLocation(loc),
	)

	s.welcome()
	return nil
}

// welcome prints a one-time hint on first use.
func (s *session) welcome() {
	show, err := s.controller.ShouldShowOnboarding()
	if err != nil || !show {
		return
	}
	fmt.Fprintln(s.errOut, "Welcome to taskctl. Add a task with: taskctl add --title \"Pay rent\"")
	fmt.Fprintln(s.errOut, "See today's tasks with: taskctl today")
	if err := s.controller.CompleteOnboarding(); err != nil {
		fmt.Fprintf(s.errOut, "warning: could not save settings: %v\n", err)
	}
}
