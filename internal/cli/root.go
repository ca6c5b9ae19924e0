// Package cli implements meydanctl, a terminal client for the Meydan API.
//
// Every command talks to a running server through internal/client. Actions
// the server guards with a confirmation (follow, block, delete...) are
// proposed first, then confirmed or cancelled after a y/n prompt, or
// confirmed straight away with --yes.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakif/meydan/internal/client"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/logging"
)

// app holds what every command needs once flags and config are resolved.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper

	verbose    bool
	configPath string
	yes        bool

	client  *client.Client
	printer *Printer
}

// NewRootCommand builds the command tree. in, out and errOut replace the
// process's standard streams, so tests can drive the CLI in-process.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		v:      viper.New(),
	}

	root := &cobra.Command{
		Use:   "meydanctl",
		Short: "Meydan CLI - browse and act on the Meydan social feed",
		Long: `meydanctl drives a running Meydan server from the terminal:
read the feed, post, comment, follow, block, chat and watch events live.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log HTTP traffic to stderr")
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default: ~/.config/meydan/config.yaml)")
	flags.String("server", "http://localhost:8080", "Meydan server base URL")
	flags.String("output", "text", "Output format: text, json")
	flags.Duration("timeout", 10*time.Second, "HTTP request timeout")
	flags.BoolVarP(&a.yes, "yes", "y", false, "Confirm actions without prompting")

	_ = a.v.BindPFlag("api.base_url", flags.Lookup("server"))
	_ = a.v.BindPFlag("api.timeout", flags.Lookup("timeout"))
	_ = a.v.BindPFlag("output.format", flags.Lookup("output"))

	root.AddCommand(
		a.feedCommand(),
		a.postCommand(),
		a.enhanceCommand(),
		a.usersCommand(),
		a.profileCommand(),
		a.followCommand(),
		a.unfollowCommand(),
		a.followingCommand(),
		a.blockCommand(),
		a.unblockCommand(),
		a.blockedCommand(),
		a.chatsCommand(),
		a.chatCommand(),
		a.notificationsCommand(),
		a.logoutCommand(),
		a.watchCommand(),
	)
	return root
}

// Execute runs meydanctl against the process's standard streams.
func Execute() {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	a.v.SetEnvPrefix("MEYDAN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.readConfig(); err != nil {
		return err
	}

	format := a.v.GetString("output.format")
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("unknown output format %q (want text or json)", format)
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, "pretty", a.errOut)
	if err != nil {
		return err
	}

	a.client = client.New(a.v.GetString("api.base_url"), a.v.GetDuration("api.timeout"), logger)
	a.printer = NewPrinter(a.out, format)
	return nil
}

func (a *app) readConfig() error {
	path := a.configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".config", "meydan", "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// resolve asks the user about a pending confirmation, then confirms or
// cancels it on the server.
func (a *app) resolve(ctx context.Context, p confirm.Pending) error {
	ok := a.yes
	if !ok {
		var err error
		ok, err = a.ask(p.Prompt)
		if err != nil {
			_, _ = a.client.Cancel(ctx, p.ID)
			return err
		}
	}

	if !ok {
		out, err := a.client.Cancel(ctx, p.ID)
		if err != nil {
			return err
		}
		return a.printer.Outcome(out)
	}

	out, err := a.client.Confirm(ctx, p.ID)
	if err != nil {
		return err
	}
	return a.printer.Outcome(out)
}

func (a *app) ask(prompt string) (bool, error) {
	if prompt == "" {
		prompt = "Are you sure?"
	}
	promptColor.Fprintf(a.out, "%s (y/n) ", prompt)

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
