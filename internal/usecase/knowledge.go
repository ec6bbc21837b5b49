package usecase

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KnowledgeEntry maps a trigger substring to a canned reply.
type KnowledgeEntry struct {
	Key    string `yaml:"key"`
	Answer string `yaml:"answer"`
}

type knowledgeFile struct {
	Entries []KnowledgeEntry `yaml:"entries"`
}

// KnowledgeBase is a read-only keyword table. Entries are matched in order,
// so earlier keys win when a message contains several of them.
type KnowledgeBase struct {
	entries []KnowledgeEntry
	lowered []string
}

// NewKnowledgeBase validates entries and builds a lookup table. Keys must be
// non-empty and unique ignoring case.
func NewKnowledgeBase(entries []KnowledgeEntry) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		entries: make([]KnowledgeEntry, 0, len(entries)),
		lowered: make([]string, 0, len(entries)),
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if key == "" {
			return nil, fmt.Errorf("usecase: knowledge entry %d has an empty key", i)
		}
		if strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("usecase: knowledge entry %q has an empty answer", e.Key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("usecase: duplicate knowledge key %q", e.Key)
		}
		seen[key] = struct{}{}
		kb.entries = append(kb.entries, e)
		kb.lowered = append(kb.lowered, key)
	}
	return kb, nil
}

// DefaultKnowledgeBase returns the built-in table.
func DefaultKnowledgeBase() *KnowledgeBase {
	kb, err := NewKnowledgeBase([]KnowledgeEntry{
		{Key: "Emmanuel", Answer: "Emmanuel is the CEO, Founder, and Developer of BASE! 🚀 BASE to the moon!"},
		{Key: "CEO", Answer: "Emmanuel is the CEO of BASE! 🚀"},
		{Key: "Founder", Answer: "Emmanuel is the Founder of BASE!"},
		{Key: "DEV", Answer: "Emmanuel is the Developer of BASE! 💻"},
		{Key: "MOD", Answer: "Wisdow is the MOD keeping things in order!"},
		{Key: "Project", Answer: "BASE is the future! 🚀 Stay bullish!"},
	})
	if err != nil {
		panic(err)
	}
	return kb
}

// LoadKnowledgeBase reads a YAML table of the form
//
//	entries:
//	  - key: CEO
//	    answer: Emmanuel is the CEO of BASE!
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("usecase: knowledge file path must not be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("usecase: read knowledge file: %w", err)
	}
	var f knowledgeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("usecase: decode knowledge file: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("usecase: knowledge file %s has no entries", path)
	}
	return NewKnowledgeBase(f.Entries)
}

// Lookup returns the answer of the first entry whose key occurs in text.
// Matching ignores case.
func (kb *KnowledgeBase) Lookup(text string) (string, bool) {
	if kb == nil {
		return "", false
	}
	text = strings.ToLower(text)
	for i, key := range kb.lowered {
		if strings.Contains(text, key) {
			return kb.entries[i].Answer, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.entries)
}
