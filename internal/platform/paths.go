package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "jobgrid"

const (
	configFile = "config.toml"
	seedFile   = "seed.jsonc"
	devSuffix  = "-dev"
)

// Paths is where jobgrid keeps its config file, database, and seed file.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	SeedPath   string
}

// Options selects the directory name. DevMode keeps a separate "-dev" tree so
// local runs never touch real data.
type Options struct {
	AppName string
	DevMode bool
}

func (o Options) name() string {
	name := strings.TrimSpace(o.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if o.DevMode {
		name += devSuffix
	}
	return name
}

// envOverrides lists, per GOOS, the variables that replace the config and data bases.
var envOverrides = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions reads the host's base directories and environment, then
// defers to PathsFor.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir, err := hostDataDir(runtime.GOOS, configDir)
	if err != nil {
		return Paths{}, err
	}

	env := map[string]string{}
	for _, vars := range envOverrides {
		env[vars.config] = os.Getenv(vars.config)
		env[vars.data] = os.Getenv(vars.data)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, opts.name())
}

// hostDataDir is the fallback data base before env overrides. Go has no
// UserDataDir, so linux uses ~/.local/share and other hosts reuse the config base.
func hostDataDir(goos, configDir string) (string, error) {
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		return filepath.Join(home, ".local", "share"), nil
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			return v, nil
		}
	}
	return configDir, nil
}

// PathsFor is the pure half of path resolution. goos picks which env overrides
// apply; darwin and unknown hosts use the base dirs unchanged.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, errors.New("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	if vars, ok := envOverrides[goos]; ok {
		if v := env[vars.config]; v != "" {
			configBase = v
		}
		if v := env[vars.data]; v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, configFile),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		SeedPath:   filepath.Join(dataDir, seedFile),
	}, nil
}
