package store

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedEntry describes one key to preload, as read from a YAML seed file:
//
//	- key: greeting
//	  value: hello
//	- key: queue
//	  type: list
//	  value: [a, b, c]
//	  ttl: 60
type SeedEntry struct {
	Key   string `yaml:"key"`
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value"`
	TTL   int    `yaml:"ttl,omitempty"`
}

// LoadSeed decodes seed entries from YAML.
func LoadSeed(r io.Reader) ([]SeedEntry, error) {
	var entries []SeedEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return entries, nil
}

// LoadSeedFile reads and decodes a YAML seed file.
func LoadSeedFile(path string) ([]SeedEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// Seed loads entries into the store, replacing existing keys.
func (s *Store) Seed(entries []SeedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, se := range entries {
		if strings.TrimSpace(se.Key) == "" {
			return fmt.Errorf("seed entry %d: missing key", i)
		}
		typ, ok := ParseType(se.Type)
		if !ok {
			return fmt.Errorf("seed entry %q: unknown type %q", se.Key, se.Type)
		}
		e, err := seedEntry(typ, se.Value)
		if err != nil {
			return fmt.Errorf("seed entry %q: %w", se.Key, err)
		}
		if se.TTL > 0 {
			e.expiresAt = s.now().Add(time.Duration(se.TTL) * time.Second)
		}
		s.items[se.Key] = e
	}
	return nil
}

func seedEntry(typ Type, value any) (*entry, error) {
	switch typ {
	case TypeString:
		return &entry{typ: typ, str: scalar(value)}, nil
	case TypeList:
		items, err := seedList(value)
		if err != nil {
			return nil, err
		}
		return &entry{typ: typ, list: items}, nil
	case TypeSet:
		items, err := seedList(value)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(items))
		for _, m := range items {
			set[m] = struct{}{}
		}
		return &entry{typ: typ, set: set}, nil
	case TypeHash:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("hash value must be a mapping, got %T", value)
		}
		hash := make(map[string]string, len(m))
		for k, v := range m {
			hash[k] = scalar(v)
		}
		return &entry{typ: typ, hash: hash}, nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ)
}

func seedList(value any) ([]string, error) {
	raw, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("value must be a sequence, got %T", value)
	}
	items := make([]string, len(raw))
	for i, v := range raw {
		items[i] = scalar(v)
	}
	return items, nil
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
