// Package shared holds the context passed to all civicctl commands.
package shared

import (
	"fmt"

	"civicvoice/api/internal/client"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ProfilePath overrides the profile file.
	// When empty, resolution falls through to CIVICCTL_PROFILE env var → ~/.civicctl.yaml.
	ProfilePath string

	// Server overrides the server URL stored in the profile.
	Server string
}

// Profile loads the active profile, applying the --server override.
func (c *Context) Profile() (*Profile, string, error) {
	path := c.ProfilePath
	if path == "" {
		path = DefaultProfilePath()
	}
	profile, err := LoadProfile(path)
	if err != nil {
		return nil, "", err
	}
	if c.Server != "" {
		profile.Server = c.Server
	}
	return profile, path, nil
}

// Client returns an API client for the active profile. Rotated tokens are
// written back to the profile file.
func (c *Context) Client() (*client.Client, *Profile, error) {
	profile, path, err := c.Profile()
	if err != nil {
		return nil, nil, err
	}
	api := client.New(profile.Server, client.Tokens{Access: profile.AccessToken, Refresh: profile.RefreshToken})
	api.OnRefresh = func(tokens client.Tokens) error {
		profile.AccessToken = tokens.Access
		profile.RefreshToken = tokens.Refresh
		if err := profile.Save(path); err != nil {
			return fmt.Errorf("write profile %s: %w", path, err)
		}
		return nil
	}
	return api, profile, nil
}

// SaveProfile writes profile to the active profile path.
func (c *Context) SaveProfile(profile *Profile) error {
	path := c.ProfilePath
	if path == "" {
		path = DefaultProfilePath()
	}
	return profile.Save(path)
}
