package shared

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultServer is used when neither the profile nor --server names one.
const DefaultServer = "http://localhost:8787"

// Profile is the persisted civicctl state in ~/.civicctl.yaml.
type Profile struct {
	Server       string `yaml:"server"`
	Username     string `yaml:"username,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`  // #nosec G117 -- session token for the configured server
	RefreshToken string `yaml:"refresh_token,omitempty"` // #nosec G117 -- session token for the configured server
}

// DefaultProfilePath resolves CIVICCTL_PROFILE, then ~/.civicctl.yaml.
func DefaultProfilePath() string {
	if env := strings.TrimSpace(os.Getenv("CIVICCTL_PROFILE")); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".civicctl.yaml"
	}
	return filepath.Join(home, ".civicctl.yaml")
}

// LoadProfile reads the profile at path.
// If the file does not exist it returns an empty profile pointing at DefaultServer.
func LoadProfile(path string) (*Profile, error) {
	profile := &Profile{Server: DefaultServer}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return profile, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, err
	}
	if strings.TrimSpace(profile.Server) == "" {
		profile.Server = DefaultServer
	}
	return profile, nil
}

// Save writes the profile with owner-only permissions.
func (p *Profile) Save(path string) error {
	out, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, out, 0o600)
}

// LoggedIn reports whether the profile holds a token pair.
func (p *Profile) LoggedIn() bool {
	return p.AccessToken != "" || p.RefreshToken != ""
}

// ClearTokens forgets the session but keeps the server.
func (p *Profile) ClearTokens() {
	p.Username = ""
	p.AccessToken = ""
	p.RefreshToken = ""
}
