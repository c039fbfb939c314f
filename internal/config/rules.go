package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/tflextract/internal/classify"
)

const (
	AppName = "tflextract"

	// LocalRulesFile is looked up in the working directory.
	LocalRulesFile = "tflextract.yaml"
)

// UserRulesFile returns $XDG_CONFIG_HOME/tflextract/rules.yaml.
func UserRulesFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "rules.yaml")
}

// FindRulesFile returns the first rules file that exists, in order: explicit,
// then env (RULES_FILE), then ./tflextract.yaml, then the user config
// directory. An explicit or env path is returned even when missing so the
// load reports it. "" means use the built-in rules.
func FindRulesFile(explicit, env string) string {
	if explicit != "" {
		return explicit
	}
	if env != "" {
		return env
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, LocalRulesFile)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	if user := UserRulesFile(); user != "" {
		if _, err := os.Stat(user); err == nil {
			return user
		}
	}
	return ""
}

// LoadRulesFile reads a YAML rules file. Missing fields take the built-in defaults.
func LoadRulesFile(path string) (classify.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return classify.Rules{}, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
		}
		return classify.Rules{}, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes rules YAML. Unknown keys are rejected so typos in a
// rules file do not silently fall back to defaults.
func ParseRules(data []byte) (classify.Rules, error) {
	var r classify.Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return classify.Rules{}, fmt.Errorf("%w: %w", ErrRulesMalformed, err)
	}
	return r.WithDefaults(), nil
}

// ResolveRules finds and loads the effective rules. The returned path is
// empty when the built-in defaults are used.
func ResolveRules(explicit, env string) (classify.Rules, string, error) {
	path := FindRulesFile(explicit, env)
	if path == "" {
		return classify.DefaultRules(), "", nil
	}
	r, err := LoadRulesFile(path)
	if err != nil {
		return classify.Rules{}, path, err
	}
	return r, path, nil
}

// MarshalRules encodes rules as YAML.
func MarshalRules(r classify.Rules) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return buf.Bytes(), nil
}
