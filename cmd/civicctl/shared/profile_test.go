package shared

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"civicvoice/api/internal/client"
)

func TestLoadProfileMissingFile(t *testing.T) {
	c := qt.New(t)
	profile, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	c.Assert(err, qt.IsNil)
	c.Assert(profile.Server, qt.Equals, DefaultServer)
	c.Assert(profile.LoggedIn(), qt.IsFalse)
}

func TestProfileRoundTripAndClear(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "nested", "civicctl.yaml")

	profile := &Profile{Server: "https://civic.example.org", Username: "priya", AccessToken: "a", RefreshToken: "r"}
	c.Assert(profile.Save(path), qt.IsNil)

	info, err := os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Mode().Perm(), qt.Equals, os.FileMode(0o600))

	loaded, err := LoadProfile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded, qt.DeepEquals, profile)

	loaded.ClearTokens()
	c.Assert(loaded.LoggedIn(), qt.IsFalse)
	c.Assert(loaded.Server, qt.Equals, "https://civic.example.org")
}

func TestContextServerOverride(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "civicctl.yaml")
	c.Assert(os.WriteFile(path, []byte("server: \"\"\nusername: amit\n"), 0o600), qt.IsNil)

	ctx := &Context{ProfilePath: path}
	profile, _, err := ctx.Profile()
	c.Assert(err, qt.IsNil)
	c.Assert(profile.Server, qt.Equals, DefaultServer)
	c.Assert(profile.Username, qt.Equals, "amit")

	ctx.Server = "http://10.0.0.5:8787"
	profile, _, err = ctx.Profile()
	c.Assert(err, qt.IsNil)
	c.Assert(profile.Server, qt.Equals, "http://10.0.0.5:8787")
}

func TestDefaultProfilePathFromEnv(t *testing.T) {
	c := qt.New(t)
	t.Setenv("CIVICCTL_PROFILE", "/tmp/other.yaml")
	c.Assert(DefaultProfilePath(), qt.Equals, "/tmp/other.yaml")
}

func TestLoadProfileRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	c.Assert(os.WriteFile(path, []byte("server: [unterminated"), 0o600), qt.IsNil)
	_, err := LoadProfile(path)
	c.Assert(err, qt.IsNotNil)
}

func TestClientReportsProfileSaveFailure(t *testing.T) {
	c := qt.New(t)
	dir := filepath.Join(t.TempDir(), "profiles")
	path := filepath.Join(dir, "civicctl.yaml")
	c.Assert((&Profile{Server: DefaultServer, AccessToken: "a", RefreshToken: "r"}).Save(path), qt.IsNil)

	api, profile, err := (&Context{ProfilePath: path}).Client()
	c.Assert(err, qt.IsNil)

	// A file where the profile directory was makes every write fail.
	c.Assert(os.RemoveAll(dir), qt.IsNil)
	c.Assert(os.WriteFile(dir, nil, 0o600), qt.IsNil)

	err = api.OnRefresh(client.Tokens{Access: "a2", Refresh: "r2"})
	c.Assert(err, qt.ErrorMatches, `write profile .*`)
	c.Assert(profile.AccessToken, qt.Equals, "a2")
}
