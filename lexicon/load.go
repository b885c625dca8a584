package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the on-disk layout of a lexicon extension:
//
//	{
//	  "wake": ["ok nova"],
//	  "commands": [
//	    {"type": "prefix", "phrase": "play", "intent": "open_app", "capture": "app"}
//	  ]
//	}
type File struct {
	Wake     []string         `json:"wake"`
	Commands []CommandPattern `json:"commands"`
}

// LoadFile reads an extension file and appends its entries to base.
func LoadFile(base *Lexicon, path string) (*Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(base, b)
}

func Load(base *Lexicon, data []byte) (*Lexicon, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if base == nil {
		return New(f.Wake, f.Commands)
	}
	return base.Extend(f.Wake, f.Commands)
}
