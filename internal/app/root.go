package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pranshuparmar/killport/internal/config"
	"github.com/pranshuparmar/killport/internal/logging"
	"github.com/pranshuparmar/killport/pkg/model"
)

// options is the resolved view of flags layered over the config file.
type options struct {
	list        bool
	json        bool
	interactive bool
	force       bool
	kill9       bool
	timeout     time.Duration
	tree        bool
	protocols   []model.Protocol
	protoSet    bool
	dryRun      bool
	color       bool
	protected   []string
	ports       []int
}

type flags struct {
	list        bool
	json        bool
	interactive bool
	force       bool
	kill9       bool
	timeout     time.Duration
	tree        bool
	protocols   []string
	dryRun      bool
	noColor     bool
	configPath  string
	debug       bool
}

func NewRootCommand(deps Deps) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "killport [flags] [port...]",
		Short: "Find and kill the processes listening on a port",
		Long: `killport finds the processes that own listening TCP/UDP ports and stops them,
first gracefully and then forcefully. System processes are refused unless --force is given.`,
		Example: `  killport 3000
  killport 3000 8080 --tree
  killport -p udp 5353 --dry-run
  killport --list
  killport --list --json
  killport -i`,
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(f.debug, deps.Stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolve(cmd, f, args, deps)
			if err != nil {
				return err
			}
			return run(cmd.Context(), opts, deps)
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&f.list, "list", "l", false, "List listening ports instead of killing")
	fl.BoolVar(&f.json, "json", false, "Print the list as JSON (requires --list)")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "Pick the listeners to kill in a full-screen selector")
	fl.BoolVarP(&f.force, "force", "f", false, "Kill protected system processes too")
	fl.BoolVarP(&f.kill9, "kill", "9", false, "Skip graceful termination and kill immediately")
	fl.DurationVarP(&f.timeout, "timeout", "t", config.DefaultTimeout, "Grace period before escalating to a forceful kill")
	fl.BoolVar(&f.tree, "tree", false, "Also kill the target's child processes")
	fl.StringSliceVarP(&f.protocols, "protocol", "p", []string{"tcp"}, "Protocol to match: tcp, udp (repeatable)")
	fl.BoolVarP(&f.dryRun, "dry-run", "n", false, "Show what would be killed without killing")
	fl.BoolVar(&f.noColor, "no-color", false, "Disable colorized output")
	fl.StringVar(&f.configPath, "config", "", "Config file (default $KILLPORT_CONFIG or <user config dir>/killport/config.yaml)")
	fl.BoolVar(&f.debug, "debug", false, "Log diagnostics to stderr")

	return cmd
}

// resolve validates the command line and layers it over the config file.
// Flags given explicitly always win.
func resolve(cmd *cobra.Command, f flags, args []string, deps Deps) (options, error) {
	if f.json && !f.list {
		return options{}, errors.New("--json can only be used with --list")
	}

	ports, err := parsePorts(args)
	if err != nil {
		return options{}, err
	}
	if len(ports) == 0 && !f.list && !f.interactive {
		return options{}, errors.New("no port given (try killport <port>, --list or --interactive)")
	}

	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return options{}, err
	}

	changed := cmd.Flags().Changed
	opts := options{
		list:        f.list,
		json:        f.json,
		interactive: f.interactive,
		force:       f.force,
		kill9:       f.kill9,
		timeout:     cfg.Timeout,
		tree:        cfg.Tree,
		protocols:   cfg.Protocols,
		dryRun:      f.dryRun,
		protected:   cfg.Protected,
		ports:       ports,
	}
	if changed("timeout") {
		if f.timeout < 0 {
			return options{}, errors.New("--timeout must not be negative")
		}
		opts.timeout = f.timeout
	}
	if changed("tree") {
		opts.tree = f.tree
	}
	if changed("protocol") {
		opts.protocols = nil
		for _, p := range f.protocols {
			proto, err := model.ParseProtocol(p)
			if err != nil {
				return options{}, err
			}
			opts.protocols = append(opts.protocols, proto)
		}
		opts.protoSet = true
	}

	noColor := f.noColor || cfg.NoColor || os.Getenv("NO_COLOR") != ""
	opts.color = !noColor && isTerminalWriter(deps.Stdout)
	return opts, nil
}

// parsePorts accepts "3000", "3000,8080" and repeated arguments.
func parsePorts(args []string) ([]int, error) {
	var ports []int
	seen := make(map[int]bool)
	for _, arg := range args {
		for _, s := range strings.Split(arg, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			port, err := strconv.Atoi(s)
			if err != nil || port < 1 || port > 65535 {
				return nil, fmt.Errorf("invalid port %q: must be a number between 1 and 65535", s)
			}
			if !seen[port] {
				seen[port] = true
				ports = append(ports, port)
			}
		}
	}
	return ports, nil
}

func isTerminalWriter(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
