// =============================================================================
// commands.go - Command Tree
// =============================================================================
//
// Each subcommand is a thin wrapper: it parses its arguments, asks the app
// for a connected denonprotocol.Client and calls exactly one client method.
//
//	select-input (si)   SI<input> on the text port
//	video-select (sv)   SV<input> on the text port
//	get-player-id       first HEOS player id
//	play-url (url)      play a stream URL on a HEOS player
//	text [command]      raw text command, or an interactive text shell
//	heos [url]          raw HEOS command, or an interactive HEOS shell
//	save-config         write host, pid and subscribe to the config file
//
// =============================================================================

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/denounce/denounce/denonprotocol"
)

// app carries the state shared by every subcommand of one invocation.
//
// GO CONCEPT: Closures Over Shared State
// --------------------------------------
// Each newXxxCommand(a) builds a cobra.Command whose RunE is a function
// literal. The literal captures the pointer a, so flag values bound with
// StringVar(&a.host, ...) and the client built in setup() are visible to
// every subcommand without globals.
type app struct {
	configPath string
	host       string
	verbose    bool

	cfg    *Config
	logger *slog.Logger
	client *denonprotocol.Client

	// dialer overrides the TCP dialer; tests point it at a mock device.
	dialer denonprotocol.Dialer
}

// setup loads the config file and builds the logger and client. Flag
// values win over the file.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	a.configPath = path
	a.cfg = cfg

	if !cmd.Flags().Changed("host") {
		a.host = cfg.Host
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []denonprotocol.Option{denonprotocol.WithLogger(a.logger)}
	if a.dialer != nil {
		opts = append(opts, denonprotocol.WithDialer(a.dialer))
	}
	a.client = denonprotocol.NewClient(a.host, opts...)
	a.logger.Debug("using receiver", "host", a.client.Host(), "config", path)
	return nil
}

// close releases the client's sessions, if any were opened.
func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "denounce",
		Short:         "Remote control for Denon and Marantz network receivers",
		Long:          "denounce drives a receiver over its text control port (23) and its HEOS port (1255).",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// GO CONCEPT: Persistent Hooks
		// ----------------------------
		// cobra runs the nearest PersistentPreRunE before any subcommand's
		// RunE. Setup lives here once instead of in every command; commands
		// annotated offline skip it because they never need a receiver.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationOffline] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
		Example: `  denounce si media-player
  denounce --host 10.0.0.12 url http://radio.example/stream
  denounce heos --subscribe`,
	}

	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.host, "host", denonprotocol.DefaultHost, "Receiver address")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/denounce/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log protocol traffic to stderr")

	root.AddCommand(
		newGenerateCompletionsCommand(root),
		newSelectInputCommand(a),
		newVideoSelectCommand(a),
		newGetPlayerIDCommand(a),
		newPlayURLCommand(a),
		newTextCommand(a),
		newHEOSCommand(a),
		newSaveConfigCommand(a),
	)
	return root
}

// annotationOffline marks commands that never talk to the receiver.
const annotationOffline = "offline"

var completionShells = []string{"zsh", "bash", "fish", "powershell"}

func newGenerateCompletionsCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:         "generate-completions [zsh|bash|fish|powershell]",
		Short:       "Print a shell completion script (zsh by default)",
		Args:        cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs:   completionShells,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "zsh"
			if len(args) == 1 {
				shell = args[0]
			}
			out := cmd.OutOrStdout()
			switch shell {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return root.GenZshCompletion(out)
			}
		},
	}
}

// completeInputs offers every input name and alias for an <input> argument.
func completeInputs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, in := range denonprotocol.AllInputs() {
		for _, name := range append([]string{in.String()}, in.Aliases()...) {
			if strings.HasPrefix(name, toComplete) {
				names = append(names, name)
			}
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func newSelectInputCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "select-input <input>",
		Aliases:           []string{"si"},
		Short:             "Switch the audio input",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInputs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := denonprotocol.ParseInput(args[0])
			if err != nil {
				return err
			}
			return a.client.SelectInput(cmd.Context(), in)
		},
	}
}

func newVideoSelectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "video-select <input>",
		Aliases:           []string{"sv"},
		Short:             "Switch the video input",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInputs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := denonprotocol.ParseInput(args[0])
			if err != nil {
				return err
			}
			return a.client.VideoSelect(cmd.Context(), in)
		},
	}
}

func newGetPlayerIDCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-player-id",
		Short: "Print the id of the first HEOS player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := a.client.GetFirstPlayerID(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pid)
			return nil
		},
	}
}

func newPlayURLCommand(a *app) *cobra.Command {
	var pid int64
	cmd := &cobra.Command{
		Use:     "play-url [--pid N] <url>",
		Aliases: []string{"url"},
		Short:   "Play a stream URL on a HEOS player",
		Long: "Play a stream URL on a HEOS player. Without --pid the pid from the " +
			"config file is used, or else the first player the receiver reports.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target *int64
			switch {
			case cmd.Flags().Changed("pid"):
				target = &pid
			case a.cfg.PID != nil:
				target = a.cfg.PID
			}
			return a.client.PlayURL(cmd.Context(), target, args[0])
		},
	}
	cmd.Flags().Int64Var(&pid, "pid", 0, "HEOS player id")
	return cmd
}

func newTextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "text [command]",
		Short: "Send an arbitrary text command",
		Long: "Send an arbitrary text command.\n\n" +
			"If no command is provided, an interactive shell is opened.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.client.SendText(cmd.Context(), args[0])
			}
			return a.runShell(cmd, denonprotocol.ProtocolText, false)
		},
	}
}

func newHEOSCommand(a *app) *cobra.Command {
	var subscribe bool
	cmd := &cobra.Command{
		Use:   "heos [url] [--subscribe]",
		Short: "Send an arbitrary HEOS command",
		Long: "Send an arbitrary HEOS command.\n\n" +
			"If no command is provided, an interactive shell is opened.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.client.SendHEOS(cmd.Context(), args[0])
			}
			if !cmd.Flags().Changed("subscribe") {
				subscribe = a.cfg.Subscribe
			}
			return a.runShell(cmd, denonprotocol.ProtocolHEOS, subscribe)
		},
	}
	cmd.Flags().BoolVar(&subscribe, "subscribe", false,
		"Subscribe to change events automatically (interactive shell only)")
	return cmd
}

func (a *app) runShell(cmd *cobra.Command, proto denonprotocol.Protocol, subscribe bool) error {
	editor := NewLineEditor(cmd.InOrStdin(), cmd.OutOrStdout())
	defer editor.Close()

	a.logger.Debug("opening shell", "protocol", proto, "interactive", editor.IsInteractive())

	return a.client.Shell(cmd.Context(), proto, denonprotocol.ShellOptions{
		Subscribe: subscribe,
		Input:     editor,
		Output:    editor,
	})
}

// printError writes a user-facing error message to stderr.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func newSaveConfigCommand(a *app) *cobra.Command {
	var (
		pid       int64
		subscribe bool
	)
	cmd := &cobra.Command{
		Use:   "save-config [--pid N] [--subscribe]",
		Short: "Write the receiver host and defaults to the config file",
		Long: "Write the current --host, and --pid and --subscribe when given, to the " +
			"config file. Settings not given keep their current values.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			cfg.Host = a.host
			if cmd.Flags().Changed("pid") {
				cfg.PID = &pid
			}
			if cmd.Flags().Changed("subscribe") {
				cfg.Subscribe = subscribe
			}
			if err := SaveConfig(a.configPath, &cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().Int64Var(&pid, "pid", 0, "Default HEOS player id for play-url")
	cmd.Flags().BoolVar(&subscribe, "subscribe", false, "Subscribe to change events in the heos shell")
	return cmd
}
