package analysis

import (
	"time"

	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
)

// FileNode is one source file reported by the repository indexer.
type FileNode struct {
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Imports  []string `json:"imports,omitempty"`
	Size     int64    `json:"size"`
	FileType string   `json:"file_type,omitempty"`
}

// RepoIndex is the backend's repository analysis result.
type RepoIndex struct {
	RepoURL         string          `json:"repo_url"`
	Framework       string          `json:"framework"`
	Files           []FileNode      `json:"files"`
	DependencyGraph deptree.Graph   `json:"dependency_graph"`
	TotalFiles      int             `json:"total_files"`
	Patterns        map[string]bool `json:"patterns,omitempty"`
	IndexedAt       string          `json:"indexed_at,omitempty"`
	Stars           int             `json:"stars,omitempty"`
}

var indexedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// IndexedTime parses IndexedAt. Timestamps without an offset are UTC.
func (r *RepoIndex) IndexedTime() (time.Time, bool) {
	for _, layout := range indexedAtLayouts {
		if ts, err := time.Parse(layout, r.IndexedAt); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// PrimaryLanguage is the language of the first reported file.
func (r *RepoIndex) PrimaryLanguage() string {
	if len(r.Files) == 0 || r.Files[0].Language == "" {
		return "Unknown"
	}
	return r.Files[0].Language
}

// LanguageCounts tallies files per language.
func (r *RepoIndex) LanguageCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		counts[f.Language]++
	}
	return counts
}

func (r *RepoIndex) HistoryEntry() history.Entry {
	return history.Entry{
		Kind: history.KindRepository,
		Key:  r.RepoURL,
		Metadata: map[string]any{
			"stars": r.Stars,
			"lang":  r.PrimaryLanguage(),
		},
	}
}

type RepositorySummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	URL         string `json:"url"`
}

// ProfileAnalysis is the backend's GitHub profile analysis result.
type ProfileAnalysis struct {
	Username    string              `json:"username"`
	Name        string              `json:"name,omitempty"`
	Bio         string              `json:"bio,omitempty"`
	AvatarURL   string              `json:"avatar_url"`
	PublicRepos int                 `json:"public_repos"`
	Followers   int                 `json:"followers"`
	Following   int                 `json:"following"`
	Languages   map[string]int      `json:"languages,omitempty"`
	TopRepos    []RepositorySummary `json:"top_repos,omitempty"`
	Summary     string              `json:"summary,omitempty"`
}

func (p *ProfileAnalysis) HistoryEntry() history.Entry {
	return history.Entry{
		Kind: history.KindProfile,
		Key:  p.Username,
		Metadata: map[string]any{
			"repos":     p.PublicRepos,
			"followers": p.Followers,
			"avatar":    p.AvatarURL,
		},
	}
}

// Document holds exactly one decoded analysis result.
type Document struct {
	Repo    *RepoIndex
	Profile *ProfileAnalysis
}

func (d Document) Kind() history.Kind {
	if d.Repo != nil {
		return history.KindRepository
	}
	if d.Profile != nil {
		return history.KindProfile
	}
	return ""
}

func (d Document) HistoryEntry() history.Entry {
	switch {
	case d.Repo != nil:
		return d.Repo.HistoryEntry()
	case d.Profile != nil:
		return d.Profile.HistoryEntry()
	default:
		return history.Entry{}
	}
}

// Graph is the repository dependency graph, or nil for profiles.
func (d Document) Graph() deptree.Graph {
	if d.Repo == nil {
		return nil
	}
	return d.Repo.DependencyGraph
}
