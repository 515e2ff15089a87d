package model

type GithubRepository struct {
	ID               int64   `json:"-"` // ignored from json only used to match languages results
	FullName         string  `json:"fullName"`
	Owner            string  `json:"owner"`
	Repository       string  `json:"repository"`
	LanguagesURL     string  `json:"languagesUrl"`
	MostUsedLanguage *string `json:"-"`
}

// LanguageByteMap is the language breakdown of one repository, in bytes
type LanguageByteMap map[string]int

type GithubRepositoryLanguages struct {
	RepositoryID int64
	Languages    LanguageByteMap
}
