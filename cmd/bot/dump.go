package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/config"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
)

type dumpLevel struct {
	ID     string `yaml:"id"`
	Played bool   `yaml:"played,omitempty"`
	Beaten bool   `yaml:"beaten,omitempty"`
	Banned bool   `yaml:"banned,omitempty"`
}

type dumpDeferred struct {
	Kind  string `yaml:"kind"`
	ID    string `yaml:"id,omitempty"`
	Label string `yaml:"label,omitempty"`
}

type dumpState struct {
	File     string         `yaml:"file"`
	Stats    domain.Tally   `yaml:"stats"`
	Levels   []dumpLevel    `yaml:"levels"`
	Deferred []dumpDeferred `yaml:"deferred"`
}

func deferredKind(k persistence.DeferredKind) string {
	switch k {
	case persistence.DeferredMarker:
		return "marker"
	case persistence.DeferredRound:
		return "round"
	}
	return "entry"
}

func toDump(path string, st persistence.State) dumpState {
	out := dumpState{
		File:     path,
		Stats:    st.Stats,
		Levels:   []dumpLevel{},
		Deferred: []dumpDeferred{},
	}
	for _, l := range st.Levels {
		out.Levels = append(out.Levels, dumpLevel(l))
	}
	for _, d := range st.Deferred {
		out.Deferred = append(out.Deferred, dumpDeferred{Kind: deferredKind(d.Kind), ID: d.ID, Label: d.Label})
	}
	return out
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the persisted session data as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
				if v := os.Getenv("CONFIG_FILE"); v != "" {
					path = v
				}
			}
			f, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			opts := persistenceOptions(f)
			opts.Enabled = true

			pl := persistence.New(opts)
			st, err := pl.Replay()
			if err != nil {
				return fmt.Errorf("replay %s: %w", pl.Path(), err)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(toDump(pl.Path(), st))
		},
	}
}
