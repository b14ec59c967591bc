package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalid = errors.New("invalid config")

// File es el config.toml del bot. Lo que falta en el archivo queda con el
// valor de Defaults.
type File struct {
	Prefix      string            `toml:"prefix"`
	Queue       Queue             `toml:"queue"`
	Persistence Persistence       `toml:"persistence"`
	Overlay     Overlay           `toml:"overlay"`
	Rewards     map[string]string `toml:"rewards"` // rewardID -> behavior
}

type Queue struct {
	Priority        string `toml:"priority"`
	LevelLimitType  string `toml:"level-limit-type"`
	LevelLimit      int    `toml:"level-limit"`
	CreatorCodeMode string `toml:"creator-code-mode"`
	Players         int    `toml:"players"`
	DefaultAdvance  string `toml:"default-advance"`
	RoundMinutes    int    `toml:"round-duration"`
}

type Persistence struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	Interactions bool   `toml:"interactions"`
	Stats        bool   `toml:"stats"`
}

// Overlay.Path es el directorio servido en /overlay/usr.
type Overlay struct {
	Path string `toml:"path"`
}

func (q Queue) RoundDuration() time.Duration {
	return time.Duration(q.RoundMinutes) * time.Minute
}

// XDGConfigHome devuelve XDG_CONFIG_HOME o ~/.config.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "shenanibot", "config.toml")
}

func Defaults() File {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return File{
		Prefix: "!",
		Queue: Queue{
			Priority:        "fifo",
			LevelLimitType:  "none",
			CreatorCodeMode: "manual",
			Players:         1,
			DefaultAdvance:  "next",
		},
		Persistence: Persistence{Path: home},
		Rewards:     map[string]string{},
	}
}

// LoadFile lee el archivo sobre los defaults. Que no exista no es error.
func LoadFile(path string) (File, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Rewards == nil {
		cfg.Rewards = map[string]string{}
	}
	return cfg, nil
}

var (
	priorities   = []string{"fifo", "rotation"}
	limitTypes   = []string{"none", "active", "session"}
	creatorModes = []string{"manual", "clipboard", "auto", "webui", "reject"}
	advances     = []string{"next", "random", "alternate"}
	behaviors    = []string{"urgent", "priority", "expedite", "add", "unlimit"}
)

func oneOf(field, v string, allowed []string) error {
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%w: %s=%q (want one of %v)", ErrInvalid, field, v, allowed)
	}
	return nil
}

func (f File) Validate() error {
	q := f.Queue
	if err := errors.Join(
		oneOf("queue.priority", q.Priority, priorities),
		oneOf("queue.level-limit-type", q.LevelLimitType, limitTypes),
		oneOf("queue.creator-code-mode", q.CreatorCodeMode, creatorModes),
		oneOf("queue.default-advance", q.DefaultAdvance, advances),
	); err != nil {
		return err
	}
	if q.Players < 1 || q.Players > 4 {
		return fmt.Errorf("%w: queue.players=%d (1-4)", ErrInvalid, q.Players)
	}
	if q.LevelLimit < 0 || q.RoundMinutes < 0 {
		return fmt.Errorf("%w: negative limit or round duration", ErrInvalid)
	}
	if f.Prefix == "" {
		return fmt.Errorf("%w: empty prefix", ErrInvalid)
	}
	if f.Persistence.Enabled && f.Persistence.Path == "" {
		return fmt.Errorf("%w: persistence.path required", ErrInvalid)
	}
	for id, b := range f.Rewards {
		if err := oneOf("rewards."+id, b, behaviors); err != nil {
			return err
		}
	}
	return nil
}
