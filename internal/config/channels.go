package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Channels is the declarative channels file: which public channels to
// harvest and, optionally, where to forward what was collected.
type Channels struct {
	Channels []string `yaml:"channels"`
	Target   string   `yaml:"target"`
}

// LoadChannels reads the channels file. It is called at the start of every
// autonomous cycle, so edits apply on the next run.
func LoadChannels(path string) (Channels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Channels{}, fmt.Errorf("read channels file %s: %w", path, err)
	}

	var ch Channels
	if err := yaml.Unmarshal(data, &ch); err != nil {
		return Channels{}, fmt.Errorf("parse channels file %s: %w", path, err)
	}

	ch.Channels = NormalizeChannels(ch.Channels)
	ch.Target = NormalizeChannel(ch.Target)
	return ch, nil
}

// NormalizeChannel strips whitespace and a leading "@".
func NormalizeChannel(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// NormalizeChannels normalizes each handle, drops empty ones and keeps only
// the first occurrence of a duplicate. Order is preserved.
func NormalizeChannels(in []string) []string {
	out := lo.FilterMap(in, func(s string, _ int) (string, bool) {
		s = NormalizeChannel(s)
		return s, s != ""
	})
	return lo.Uniq(out)
}
