package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ruvenwang/mindponics/internal/adapter/render"
	"github.com/ruvenwang/mindponics/internal/domain"
)

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\nRun 'mindponics help' for usage information.\n", err)
		os.Exit(2)
	}

	var runErr error
	switch args.command {
	case "", "help", "-h", "--help":
		showUsage()
		return
	case "ask":
		runErr = runAsk(args)
	case "tool":
		runErr = runTool(args)
	case "monitor":
		runErr = runMonitor(args)
	case "history":
		runErr = runHistory(args)
	case "doctor":
		runErr = runDoctor(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'mindponics help' for usage information.\n", args.command)
		os.Exit(2)
	}
	if runErr != nil {
		render.New(os.Stderr, args.plain).Error(fmt.Errorf("%s: %w", args.command, runErr))
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`mindponics - multi-agent aquaponics advisor

USAGE:
    mindponics COMMAND [FLAGS] [ARGS]

COMMANDS:
    ask QUESTION          Ask the specialist team a question
                          Prefix with @water, @fish, @plant, @bacteria or
                          @environment to pick specialists yourself
    tool                  List the advisor tools
    tool NAME [JSON]      Run one advisor tool with JSON parameters
    monitor               Run the configured query on the monitor schedule
                          --once runs a single cycle and exits
    history               Show recent advisories (-n N limits the list)
    doctor                Run health checks on your setup
    help                  Show this help message

FLAGS:
    --config PATH         Config file (default: ./config.yaml or $MINDPONICS_CONFIG)
    --plain               Print plain text instead of styled markdown
    --set KEY=VALUE       Override system state for this run, repeatable
                          e.g. --set fish_species=trout --set fish_count=40

CONFIGURATION:
    Environment: MINDPONICS_* variables override config values

EXAMPLES:
    mindponics ask "my lettuce leaves are turning yellow"
    mindponics ask "@fish how much should I feed?" --set fish_count=250
    mindponics tool biofilter_size '{"fish_load_kg": 20}'
    mindponics monitor --once
    mindponics history -n 5`)
}

// cliArgs is the parsed command line.
type cliArgs struct {
	command    string
	configPath string
	plain      bool
	once       bool
	limit      int
	state      domain.AgentState
	rest       []string
}

// parseArgs splits args into the command, global flags and positional
// arguments. Flags may appear anywhere after the command.
func parseArgs(args []string) (cliArgs, error) {
	out := cliArgs{state: domain.AgentState{}}
	if len(args) == 0 {
		return out, nil
	}
	out.command = args[0]

	value := func(i *int, name string) (string, error) {
		arg := args[*i]
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v, nil
		}
		if *i+1 >= len(args) {
			return "", fmt.Errorf("flag %s needs a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--plain":
			out.plain = true
		case arg == "--once":
			out.once = true
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			v, err := value(&i, "--config")
			if err != nil {
				return out, err
			}
			out.configPath = v
		case arg == "--set" || strings.HasPrefix(arg, "--set="):
			v, err := value(&i, "--set")
			if err != nil {
				return out, err
			}
			key, val, err := parseSet(v)
			if err != nil {
				return out, err
			}
			out.state[key] = val
		case arg == "-n" || strings.HasPrefix(arg, "-n="):
			v, err := value(&i, "-n")
			if err != nil {
				return out, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return out, fmt.Errorf("-n wants a non-negative number, got %q", v)
			}
			out.limit = n
		case strings.HasPrefix(arg, "--") && len(arg) > 2:
			return out, fmt.Errorf("unknown flag %s", arg)
		default:
			out.rest = append(out.rest, arg)
		}
	}
	return out, nil
}

// parseSet parses KEY=VALUE. Numeric values become float64 so workers can
// read them as measurements.
func parseSet(s string) (string, any, error) {
	key, val, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("--set wants KEY=VALUE, got %q", s)
	}
	val = strings.TrimSpace(val)
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return key, f, nil
	}
	switch strings.ToLower(val) {
	case "true":
		return key, true, nil
	case "false":
		return key, false, nil
	}
	return key, val, nil
}

// configPath resolves the config file: --config, then $MINDPONICS_CONFIG,
// then ./config.yaml.
func configPath(args cliArgs) string {
	if args.configPath != "" {
		return args.configPath
	}
	if p := os.Getenv("MINDPONICS_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
