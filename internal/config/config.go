// Package config parses the CLI surface using the standard library's
// flag package rather than a third-party flag library, matching the rest
// of this codebase.
package config

import (
	"flag"
	"fmt"
)

// LogLevel is the admitted set of --loglevel values.
type LogLevel string

const (
	LevelError LogLevel = "error"
	LevelWarn  LogLevel = "warn"
	LevelInfo  LogLevel = "info"
	LevelDebug LogLevel = "debug"
	LevelTrace LogLevel = "trace"
)

func (l LogLevel) valid() bool {
	switch l {
	case LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace:
		return true
	default:
		return false
	}
}

// AppConfig is the parsed CLI surface.
type AppConfig struct {
	Address   string
	Port      int
	Username  string
	Password  string
	LogLevel  LogLevel
	AutoLogin bool
	EnableTLS bool
}

// Parse parses args (typically os.Args[1:]) into an AppConfig.
func Parse(args []string) (AppConfig, error) {
	fs := flag.NewFlagSet("chatger-tui", flag.ContinueOnError)
	address := fs.String("address", "0.0.0.0", "chatger server address")
	port := fs.Int("port", 4348, "chatger server port")
	username := fs.String("username", "", "login username")
	password := fs.String("password", "", "login password")
	loglevel := fs.String("loglevel", string(LevelInfo), "log level: error|warn|info|debug|trace")
	autoLogin := fs.Bool("auto-login", false, "log in automatically using --username/--password")
	enableTLS := fs.Bool("enable-tls", false, "use TLS for the server connection")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	level := LogLevel(*loglevel)
	if !level.valid() {
		return AppConfig{}, fmt.Errorf("invalid --loglevel %q", *loglevel)
	}

	return AppConfig{
		Address:   *address,
		Port:      *port,
		Username:  *username,
		Password:  *password,
		LogLevel:  level,
		AutoLogin: *autoLogin,
		EnableTLS: *enableTLS,
	}, nil
}
