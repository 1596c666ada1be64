package store

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for report dates.
const DateLayout = "2006-01-02"

// VerifiedThreshold is the verification count at which an issue is shown as
// community verified.
const VerifiedThreshold = 5

// ReservedAdmin is the username of the account that can never be deleted.
const ReservedAdmin = "admin"

type Category string

const (
	CategoryRoads    Category = "Roads"
	CategoryLighting Category = "Lighting"
	CategoryWaste    Category = "Waste"
	CategoryParks    Category = "Parks"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRoads,
	CategoryLighting,
	CategoryWaste,
	CategoryParks,
	CategoryOther,
}

// ParseCategory matches value case-insensitively against the known categories.
func ParseCategory(value string) (Category, error) {
	trimmed := strings.TrimSpace(value)
	for _, category := range Categories {
		if strings.EqualFold(trimmed, string(category)) {
			return category, nil
		}
	}
	return "", ErrInvalidCategory
}

type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

var Statuses = []Status{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
}

// ParseStatus accepts the display value ("In Progress") as well as compact
// spellings such as "in_progress" or "InProgress".
func ParseStatus(value string) (Status, error) {
	normalized := compactStatus(value)
	for _, status := range Statuses {
		if normalized == compactStatus(string(status)) {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

func compactStatus(value string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(value)))
}

type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type GovResponse struct {
	Department          string
	Official            string
	Response            string
	EstimatedResolution string
	LastUpdated         time.Time
}

type Issue struct {
	ID            int64
	Title         string
	Category      Category
	Status        Status
	Votes         int
	Description   string
	Location      string
	ReportedOn    time.Time
	ReporterID    string
	ReporterName  string
	Verifications int
	Images        []string
	Coordinates   *Coordinates
	GovResponse   *GovResponse
}

func (i Issue) CommunityVerified() bool {
	return i.Verifications >= VerifiedThreshold
}

// IssueDraft carries the user-editable fields of a new report.
type IssueDraft struct {
	Title       string
	Category    Category
	Description string
	Location    string
	Images      []string
	Coordinates *Coordinates
}

type Comment struct {
	ID         int64
	IssueID    int64
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

type Profile struct {
	UserID         string
	DisplayName    string
	Badges         []string
	Points         int
	IssuesReported int
}

type User struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

func (u User) Identity() Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
	}
}

// Identity is the acting user of a mutation.
type Identity struct {
	UserID      string
	Username    string
	DisplayName string
	IsAdmin     bool
}

func cloneIssue(src *Issue) Issue {
	out := *src
	if src.Images != nil {
		out.Images = append([]string(nil), src.Images...)
	}
	if src.Coordinates != nil {
		coords := *src.Coordinates
		out.Coordinates = &coords
	}
	if src.GovResponse != nil {
		response := *src.GovResponse
		out.GovResponse = &response
	}
	return out
}

func cloneProfile(src *Profile) Profile {
	out := *src
	out.Badges = append([]string{}, src.Badges...)
	return out
}
