package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type Seed struct {
	Users    []SeedUser    `yaml:"users"`
	Profiles []SeedProfile `yaml:"profiles"`
	Issues   []SeedIssue   `yaml:"issues"`
}

type SeedUser struct {
	ID          string `yaml:"id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
	Admin       bool   `yaml:"admin"`
}

type SeedProfile struct {
	UserID         string   `yaml:"userId"`
	DisplayName    string   `yaml:"displayName"`
	Badges         []string `yaml:"badges"`
	Points         int      `yaml:"points"`
	IssuesReported int      `yaml:"issuesReported"`
}

type SeedIssue struct {
	ID            int64            `yaml:"id"`
	Title         string           `yaml:"title"`
	Category      string           `yaml:"category"`
	Status        string           `yaml:"status"`
	Votes         int              `yaml:"votes"`
	Description   string           `yaml:"description"`
	Location      string           `yaml:"location"`
	Date          string           `yaml:"date"`
	ReporterID    string           `yaml:"reporterId"`
	ReporterName  string           `yaml:"reporterName"`
	Verifications int              `yaml:"verifications"`
	Images        []string         `yaml:"images"`
	Coordinates   *SeedCoordinates `yaml:"coordinates"`
	GovResponse   *SeedGovResponse `yaml:"govResponse"`
}

type SeedCoordinates struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type SeedGovResponse struct {
	Department          string `yaml:"department"`
	Official            string `yaml:"official"`
	Response            string `yaml:"response"`
	EstimatedResolution string `yaml:"estimatedResolution"`
	LastUpdated         string `yaml:"lastUpdated"`
}

// LoadSeed reads a seed file, or the embedded demo dataset when path is empty.
func LoadSeed(path string) (Seed, error) {
	raw := defaultSeed
	if strings.TrimSpace(path) != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read seed file: %w", err)
		}
		raw = contents
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// Apply loads the dataset into s. hash turns a plaintext password into the
// stored credential hash.
func (seed Seed) Apply(ctx context.Context, s *Store, hash func(string) (string, error)) error {
	for _, item := range seed.Users {
		passwordHash, err := hash(item.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", item.Username, err)
		}
		if _, err := s.CreateUser(ctx, User{
			ID:           item.ID,
			Username:     item.Username,
			DisplayName:  item.DisplayName,
			PasswordHash: passwordHash,
			IsAdmin:      item.Admin,
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", item.Username, err)
		}
	}

	for _, item := range seed.Profiles {
		if err := s.PutProfile(ctx, Profile{
			UserID:         item.UserID,
			DisplayName:    item.DisplayName,
			Badges:         item.Badges,
			Points:         item.Points,
			IssuesReported: item.IssuesReported,
		}); err != nil {
			return fmt.Errorf("seed profile %s: %w", item.UserID, err)
		}
	}

	for _, item := range seed.Issues {
		issue, err := item.toIssue()
		if err != nil {
			return fmt.Errorf("seed issue %d: %w", item.ID, err)
		}
		if err := s.ImportIssue(ctx, issue); err != nil {
			return err
		}
	}
	return nil
}

func (item SeedIssue) toIssue() (Issue, error) {
	category, err := ParseCategory(item.Category)
	if err != nil {
		return Issue{}, err
	}
	status, err := ParseStatus(item.Status)
	if err != nil {
		return Issue{}, err
	}
	reportedOn, err := time.Parse(DateLayout, item.Date)
	if err != nil {
		return Issue{}, fmt.Errorf("parse date: %w", err)
	}
	issue := Issue{
		ID:            item.ID,
		Title:         item.Title,
		Category:      category,
		Status:        status,
		Votes:         item.Votes,
		Description:   item.Description,
		Location:      item.Location,
		ReportedOn:    reportedOn,
		ReporterID:    item.ReporterID,
		ReporterName:  item.ReporterName,
		Verifications: item.Verifications,
		Images:        item.Images,
	}
	if item.Coordinates != nil {
		coords := Coordinates{Lat: item.Coordinates.Lat, Lng: item.Coordinates.Lng}
		if !coords.Valid() {
			return Issue{}, ErrInvalidCoords
		}
		issue.Coordinates = &coords
	}
	if item.GovResponse != nil {
		updated, err := time.Parse(DateLayout, item.GovResponse.LastUpdated)
		if err != nil {
			return Issue{}, fmt.Errorf("parse government response date: %w", err)
		}
		issue.GovResponse = &GovResponse{
			Department:          item.GovResponse.Department,
			Official:            item.GovResponse.Official,
			Response:            item.GovResponse.Response,
			EstimatedResolution: item.GovResponse.EstimatedResolution,
			LastUpdated:         updated,
		}
	}
	return issue, nil
}
