package model

import "strings"

type LanguagesQuery struct {
	Limit int `form:"limit" binding:"gte=0"`
}

type BadgeQuery struct {
	Theme string `form:"theme"`
}

// ThemeOrDefault returns the requested theme name, or the primary one when none was given
func (params BadgeQuery) ThemeOrDefault(primary string) string {
	theme := strings.ToLower(strings.TrimSpace(params.Theme))

	if theme == "" {
		return primary
	}

	return theme
}
