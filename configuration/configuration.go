// Package configuration loads and validates the registry's YAML
// configuration file.
package configuration

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v2"
)

// Credential is one configured basic-auth user.
type Credential struct {
	UserName     string `yaml:"user_name"`
	PasswordHash string `yaml:"password_hash"`
}

// Configuration is the on-disk YAML document read by `registry serve`.
type Configuration struct {
	StoragePath   string       `yaml:"storage_path"`
	ListenAddress string       `yaml:"listen_address"`
	AccessURL     string       `yaml:"access_url"`
	AppSecret     string       `yaml:"app_secret"`
	Credentials   []Credential `yaml:"credentials"`
}

// Parse decodes raw YAML bytes into a Configuration.
func Parse(raw []byte) (*Configuration, error) {
	var c Configuration
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	return &c, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Save serializes c as YAML and writes it to path.
func (c *Configuration) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Authenticate checks username/password against the configured bcrypt
// hashes, returning true on a match.
func (c *Configuration) Authenticate(username, password string) bool {
	for _, cred := range c.Credentials {
		if cred.UserName != username {
			continue
		}
		return bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) == nil
	}
	return false
}

// AddCredential appends or replaces a user's password hash.
func (c *Configuration) AddCredential(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for i, cred := range c.Credentials {
		if cred.UserName == username {
			c.Credentials[i].PasswordHash = string(hash)
			return nil
		}
	}

	c.Credentials = append(c.Credentials, Credential{UserName: username, PasswordHash: string(hash)})
	return nil
}

// HasAnyCredentials reports whether the registry has configured users. Per
// the request dispatcher's auth rule, read verbs are open to anonymous
// callers only when no credentials are configured.
func (c *Configuration) HasAnyCredentials() bool {
	return len(c.Credentials) > 0
}
