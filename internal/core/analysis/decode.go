package analysis

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	domainerrors "repolens/internal/core/errors"
	"repolens/internal/engine/deptree"
)

// Load reads an analysis document from disk.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeNotFound, "analysis file not found"),
				domainerrors.CtxPath, path,
			)
		}
		return Document{}, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeInternal, "open analysis file"),
			domainerrors.CtxPath, path,
		)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return Document{}, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return doc, nil
}

// Decode sniffs whether the JSON object is a repository index (repo_url) or
// a profile analysis (username). A bare path-to-paths object is accepted as
// a repository index with only a dependency graph.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, domainerrors.Wrap(err, domainerrors.CodeDecode, "read analysis document")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Document{}, domainerrors.Wrap(err, domainerrors.CodeDecode, "analysis document must be a JSON object")
	}

	switch {
	case probe["repo_url"] != nil:
		var repo RepoIndex
		if err := json.Unmarshal(data, &repo); err != nil {
			return Document{}, domainerrors.Wrap(err, domainerrors.CodeDecode, "decode repository index")
		}
		if strings.TrimSpace(repo.RepoURL) == "" {
			return Document{}, domainerrors.New(domainerrors.CodeValidationError, "repository index has an empty repo_url")
		}
		if repo.DependencyGraph == nil {
			repo.DependencyGraph = deptree.Graph{}
		}
		return Document{Repo: &repo}, nil
	case probe["username"] != nil:
		var profile ProfileAnalysis
		if err := json.Unmarshal(data, &profile); err != nil {
			return Document{}, domainerrors.Wrap(err, domainerrors.CodeDecode, "decode profile analysis")
		}
		if strings.TrimSpace(profile.Username) == "" {
			return Document{}, domainerrors.New(domainerrors.CodeValidationError, "profile analysis has an empty username")
		}
		return Document{Profile: &profile}, nil
	}

	var graph deptree.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return Document{}, domainerrors.Wrap(err, domainerrors.CodeDecode, "document is neither an analysis result nor a dependency graph")
	}
	return Document{Repo: &RepoIndex{DependencyGraph: graph}}, nil
}
