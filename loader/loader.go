// loader/loader.go

// Package loader reads policy documents from JSON files. A policy file
// holds either a single policy object or an array of them.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/validation"
)

// Loader decodes and validates policies from files and readers.
type Loader struct {
	validator *validation.Validator
}

func New() *Loader {
	return &Loader{validator: validation.New()}
}

// Load decodes policies from a reader.
func (l *Loader) Load(r io.Reader) ([]*model.ABACPolicy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	var policies []*model.ABACPolicy
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &policies); err != nil {
			return nil, fmt.Errorf("invalid policy document: %w", err)
		}
	} else {
		var policy model.ABACPolicy
		if err := json.Unmarshal(data, &policy); err != nil {
			return nil, fmt.Errorf("invalid policy document: %w", err)
		}
		policies = []*model.ABACPolicy{&policy}
	}

	if err := l.validator.ValidatePolicies(policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// LoadFile decodes policies from one JSON file.
func (l *Loader) LoadFile(path string) ([]*model.ABACPolicy, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	policies, err := l.Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policies, nil
}

// LoadDir decodes policies from every *.json file in a directory,
// in lexical filename order.
func (l *Loader) LoadDir(dir string) ([]*model.ABACPolicy, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	var policies []*model.ABACPolicy
	for _, path := range paths {
		loaded, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		policies = append(policies, loaded...)
	}
	return policies, nil
}
