package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// The four per-team documents live in fixed directories under the
// configuration root, one file per team.
const (
	accountsDir  = "aws-accounts"
	policiesDir  = "aws-policies"
	permanentDir = "permanent-access"
	temporaryDir = "temporary-access"
)

// Paths returns the expected locations of the four team documents, for
// diagnostics when one is missing.
func Paths(root, team string) []string {
	file := team + ".yaml"
	return []string{
		filepath.Join(root, accountsDir, file),
		filepath.Join(root, policiesDir, file),
		filepath.Join(root, permanentDir, file),
		filepath.Join(root, temporaryDir, file),
	}
}

// Load reads and validates the four declarative documents for a team. A
// missing file is fatal to the run; the returned error preserves
// fs.ErrNotExist so callers can render a hint.
func Load(root, team string) (*TeamConfig, error) {
	cfg := &TeamConfig{Team: team}

	var accounts struct {
		Accounts Accounts `yaml:"aws-accounts"`
	}
	if err := loadDocument(filepath.Join(root, accountsDir, team+".yaml"), &accounts); err != nil {
		return nil, err
	}
	cfg.Accounts = accounts.Accounts

	var policies struct {
		Policies map[string]PolicyDefinition `yaml:"aws-policies"`
	}
	if err := loadDocument(filepath.Join(root, policiesDir, team+".yaml"), &policies); err != nil {
		return nil, err
	}
	cfg.Policies = policies.Policies

	var permanent struct {
		Grants []PermanentGrant `yaml:"permanent-access"`
	}
	if err := loadDocument(filepath.Join(root, permanentDir, team+".yaml"), &permanent); err != nil {
		return nil, err
	}
	cfg.Permanent = permanent.Grants

	temporary, _, err := LoadTemporaryAccess(root, team)
	if err != nil {
		return nil, err
	}
	cfg.Temporary = temporary

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTemporaryAccess reads just the temporary-access document, returning
// the raw file contents alongside the parsed grants so validation output can
// quote the source.
func LoadTemporaryAccess(root, team string) ([]TemporaryGrant, []byte, error) {
	path := filepath.Join(root, temporaryDir, team+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		Grants []TemporaryGrant `yaml:"temporary-access"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Grants, raw, nil
}

func loadDocument(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
