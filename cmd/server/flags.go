package main

import (
	"fmt"
	"os"

	"github.com/fixfast/mockdesk/internal/config"
	"github.com/spf13/pflag"
)

// loadConfig layers command-line flags over the file and environment
// configuration. Only flags that were set override.
func loadConfig(args []string) (config.Config, error) {
	var (
		configPath string
		transport  string
		driver     string
		dbPath     string
		logLevel   string
		host       string
		port       int
	)

	flagSet := pflag.NewFlagSet("mockdesk", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $MOCKDESK_CONFIG_PATH)")
	flagSet.StringVar(&transport, "transport", "", "transport mode: http or stdio")
	flagSet.StringVar(&driver, "storage", "", "storage driver: memory or sqlite")
	flagSet.StringVar(&dbPath, "db", "", "sqlite database path")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&host, "host", "", "HTTP listen host")
	flagSet.IntVarP(&port, "port", "p", 0, "HTTP listen port")
	flagSet.BoolP("version", "v", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return config.Config{}, err
	}
	if show, _ := flagSet.GetBool("version"); show {
		fmt.Fprintf(os.Stdout, "mockdesk %s\n", version)
		return config.Config{}, pflag.ErrHelp
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return config.Config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if flagSet.Changed("transport") {
		cfg.Transport.Mode = transport
	}
	if flagSet.Changed("storage") {
		cfg.Storage.Driver = driver
	}
	if flagSet.Changed("db") {
		cfg.Storage.Path = dbPath
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flagSet.Changed("host") {
		cfg.Server.Host = host
	}
	if flagSet.Changed("port") {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
