package main

import (
	"flag"
	"fmt"
	"glang/internal/ast"
	"glang/internal/config"
	"glang/internal/evaluator"
	"glang/internal/loader"
	"glang/internal/logging"
	"glang/internal/natives/sqldb"
	"glang/internal/object"
	"io"
	"log/slog"
	"os"
)

const (
	exitOK        = 0
	exitException = 1
	exitUsage     = 2
)

var (
	// Version is stamped at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath string
	moduleName string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// runtime config
	flag.StringVar(&configPath, "config", "", "Path to a TOML configuration file")
	flag.StringVar(&moduleName, "module", "", "Module identifier recorded in tracebacks")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()
	os.Exit(run(flag.Args(), os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if version {
		printVersion(stdout)
		return exitOK
	}
	if help {
		printHelp(stdout)
		return exitOK
	}
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: glrun [options] <program.yaml | ->")
		return exitUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	cfg.Version, cfg.BuildDate, cfg.Commit = Version, BuildDate, Commit
	applyFlags(&cfg)

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer closer.Close()
	slog.SetDefault(logger)

	program, err := readProgram(args[0], stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	return execute(cfg, logger, program, stdout, stderr)
}

func execute(cfg config.Configuration, logger *slog.Logger, program *ast.Program, stdout, stderr io.Writer) int {
	store := sqldb.New(sqldb.Options{
		MaxOpenConns: cfg.SQL.MaxOpenConns,
		Logger:       logger,
	})
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close sql connections", slog.Any("error", err))
		}
	}()

	ev := evaluator.New(
		evaluator.WithModule(cfg.Module),
		evaluator.WithLogger(logger),
		evaluator.WithOutput(stdout),
		evaluator.WithLoader(loader.New(loader.Options{
			Paths:  cfg.LibraryPaths,
			Logger: logger,
		})),
		evaluator.WithBuiltinModule(store.Module()),
		evaluator.WithNativeExtensions(cfg.AllowNative),
	)
	defer func() {
		if err := ev.Close(); err != nil {
			logger.Warn("failed to release native modules", slog.Any("error", err))
		}
	}()

	result, exc := ev.Run(program)
	if exc != nil {
		fmt.Fprintln(stderr, exc.Render())
		return exitException
	}
	if result != object.NULL {
		fmt.Fprintln(stdout, result.Inspect())
	}
	return exitOK
}

// applyFlags lets command line flags override the configuration file.
func applyFlags(cfg *config.Configuration) {
	if moduleName != "" {
		cfg.Module = moduleName
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
}

func readProgram(path string, stdin io.Reader) (*ast.Program, error) {
	if path == "-" {
		return ast.Decode(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	program, err := ast.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "glrun version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `Usage: glrun [options] <program>

Options:
  -config <path>     Read runtime settings from a TOML file.
  -module <name>     Module identifier used in tracebacks. Default is '<main>'.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
The program is a decoded syntax tree in YAML or JSON. Use '-' to read it
from standard input. Native libraries named by import statements are searched
for in the configured library paths and in $%s.

Examples:
  glrun program.yaml                      Run a program
  glrun -log-level=debug program.yaml     Run with debug logging on stderr
  glrun -config glang.toml -              Run a program read from stdin

Exit status is 0 on success, 1 when the program raises, 2 on usage errors.

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, config.LibraryPathEnv, Version, BuildDate, Commit)
}
