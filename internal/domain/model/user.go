package model

import (
	"regexp"
	"strings"
)

const (
	RoleAdmin = "admin"
)

// UserInfo is the flat user.info record handed to the renderer.
type UserInfo struct {
	Handle                  string `json:"handle"`
	FirstName               string `json:"firstName,omitempty"`
	LastName                string `json:"lastName,omitempty"`
	Country                 string `json:"country,omitempty"`
	City                    string `json:"city,omitempty"`
	Organization            string `json:"organization,omitempty"`
	Contribution            int    `json:"contribution"`
	Rank                    string `json:"rank,omitempty"`
	Rating                  int    `json:"rating,omitempty"`
	MaxRank                 string `json:"maxRank,omitempty"`
	MaxRating               int    `json:"maxRating,omitempty"`
	FriendOfCount           int    `json:"friendOfCount"`
	Avatar                  string `json:"avatar,omitempty"`
	TitlePhoto              string `json:"titlePhoto,omitempty"`
	LastOnlineTimeSeconds   int64  `json:"lastOnlineTimeSeconds,omitempty"`
	RegistrationTimeSeconds int64  `json:"registrationTimeSeconds,omitempty"`
}

var schemePrefix = regexp.MustCompile(`^(https?:)?//`)

// NormalizeAssetURL forces an https scheme on absolute and scheme-relative URLs.
func NormalizeAssetURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return schemePrefix.ReplaceAllString(raw, "https://")
}

// PhotoURL is the title photo (falling back to the avatar) over https.
func (u UserInfo) PhotoURL() string {
	if u.TitlePhoto != "" {
		return NormalizeAssetURL(u.TitlePhoto)
	}
	return NormalizeAssetURL(u.Avatar)
}

// FullName joins first and last name, empty when neither is public.
func (u UserInfo) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ShowMaxRank reports whether the max rank badge carries information beyond the current rank.
func (u UserInfo) ShowMaxRank() bool {
	return u.MaxRank != "" && !strings.EqualFold(u.MaxRank, u.Rank)
}
