package model

import (
	"strconv"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender accepts the three known values in any case.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, true
	}
	return "", false
}

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Nickname   *string   `json:"nickname"`
	Profession *string   `json:"profession"`
	Industry   *string   `json:"industry"`
	Phone      *string   `json:"phone"`
	Bio        *string   `json:"bio"`
	Gender     Gender    `json:"gender"`
	UID        *string   `json:"uid"`
	CreatedAt  time.Time `json:"created_at"`
}

// Label is the public display name: nickname, then name, then "Player {id}".
func Label(id int64, name string, nickname *string) string {
	if nickname != nil && strings.TrimSpace(*nickname) != "" {
		return *nickname
	}
	if strings.TrimSpace(name) != "" {
		return name
	}
	return "Player " + strconv.FormatInt(id, 10)
}

func (u *User) Label() string {
	return Label(u.ID, u.Name, u.Nickname)
}

// UserWithTotal is a user row joined with its running total, 0 when absent.
type UserWithTotal struct {
	User
	Total float64 `json:"total"`
}

type Profile struct {
	User
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type RegisterRequest struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Nickname   string `json:"nickname"`
	Profession string `json:"profession"`
	Industry   string `json:"industry"`
	Phone      string `json:"phone"`
	Bio        string `json:"bio"`
	Gender     string `json:"gender"`
}

// ProfileUpdate carries a partial profile. An omitted field keeps the stored
// value, null or a blank string clears it. Name must be present.
type ProfileUpdate struct {
	Name       Field[string] `json:"name"`
	Nickname   Field[string] `json:"nickname"`
	Profession Field[string] `json:"profession"`
	Industry   Field[string] `json:"industry"`
	Phone      Field[string] `json:"phone"`
	Bio        Field[string] `json:"bio"`
	Gender     Field[string] `json:"gender"`
}

// NullIfBlank trims s and returns nil when nothing is left.
func NullIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
