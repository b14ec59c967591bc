package config

import (
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

const msgSaveFailed = "There was an issue updating the configuration; please refer to the log for more information"

// FileStore reescribe config.toml cuando cambian las recompensas.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// SaveRewards devuelve "" si guardó; si no, el texto para el chat y las
// instrucciones para editarlo a mano van al log.
func (s *FileStore) SaveRewards(behaviors map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(behaviors); err != nil {
		log.Printf("[config] ERROR: unable to write %s: %v", s.path, err)
		log.Printf("[config] to update it manually, the [rewards] table should be:\n%s", rewardsTOML(behaviors))
		return msgSaveFailed
	}
	return ""
}

func (s *FileStore) save(behaviors map[string]string) error {
	cfg, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	cfg.Rewards = maps.Clone(behaviors)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func rewardsTOML(behaviors map[string]string) string {
	var b strings.Builder
	b.WriteString("[rewards]\n")
	for _, id := range slices.Sorted(maps.Keys(behaviors)) {
		fmt.Fprintf(&b, "%q = %q\n", id, behaviors[id])
	}
	return b.String()
}
