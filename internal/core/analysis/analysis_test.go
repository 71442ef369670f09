package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "repolens/internal/core/errors"
	"repolens/internal/data/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repoJSON = `{
  "repo_url": "https://github.com/user/repo",
  "framework": "fastapi",
  "files": [
    {"path": "app/main.py", "language": "python", "imports": ["fastapi"], "size": 1024, "file_type": "module"},
    {"path": "web/index.ts", "language": "typescript", "size": 10}
  ],
  "dependency_graph": {"app/main.py": ["app/models.py"], "app/models.py": []},
  "total_files": 2,
  "indexed_at": "2025-12-30T16:00:00.123456",
  "stars": 42
}`

const profileJSON = `{
  "username": "octocat",
  "name": "The Octocat",
  "avatar_url": "https://avatars.example/octocat.png",
  "public_repos": 8,
  "followers": 100,
  "following": 9,
  "languages": {"Go": 3},
  "top_repos": [{"name": "hello", "stars": 5, "forks": 1, "url": "https://github.com/octocat/hello"}]
}`

func TestDecode_Repository(t *testing.T) {
	doc, err := Decode(strings.NewReader(repoJSON))
	require.NoError(t, err)
	require.NotNil(t, doc.Repo)
	assert.Nil(t, doc.Profile)
	assert.Equal(t, history.KindRepository, doc.Kind())

	entry := doc.HistoryEntry()
	assert.Equal(t, "https://github.com/user/repo", entry.Key)
	assert.Equal(t, 42, entry.Metadata["stars"])
	assert.Equal(t, "python", entry.Metadata["lang"])

	assert.Equal(t, []string{"app/models.py"}, doc.Graph()["app/main.py"])
	assert.Equal(t, map[string]int{"python": 1, "typescript": 1}, doc.Repo.LanguageCounts())

	ts, ok := doc.Repo.IndexedTime()
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2025, 12, 30, 16, 0, 0, 123456000, time.UTC)), "got %s", ts)
}

func TestDecode_Profile(t *testing.T) {
	doc, err := Decode(strings.NewReader(profileJSON))
	require.NoError(t, err)
	require.NotNil(t, doc.Profile)
	assert.Equal(t, history.KindProfile, doc.Kind())
	assert.Nil(t, doc.Graph())

	entry := doc.HistoryEntry()
	assert.Equal(t, "octocat", entry.Key)
	assert.Equal(t, map[string]any{
		"repos":     8,
		"followers": 100,
		"avatar":    "https://avatars.example/octocat.png",
	}, entry.Metadata)
}

func TestDecode_BareGraph(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"a.ts": ["b.ts"], "b.ts": []}`))
	require.NoError(t, err)
	require.NotNil(t, doc.Repo)
	assert.Empty(t, doc.Repo.RepoURL)
	assert.Len(t, doc.Graph(), 2)
}

func TestDecode_RepositoryWithoutGraph(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"repo_url": "https://x/y", "files": []}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Graph())
	assert.Empty(t, doc.Graph())
	assert.Equal(t, "Unknown", doc.HistoryEntry().Metadata["lang"])
}

func TestDecode_Errors(t *testing.T) {
	cases := map[string]struct {
		input string
		code  domainerrors.ErrorCode
	}{
		"not an object":   {`[1, 2]`, domainerrors.CodeDecode},
		"garbage":         {`{`, domainerrors.CodeDecode},
		"empty repo url":  {`{"repo_url": " "}`, domainerrors.CodeValidationError},
		"empty username":  {`{"username": ""}`, domainerrors.CodeValidationError},
		"bad graph value": {`{"a": 3}`, domainerrors.CodeDecode},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(repoJSON), 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fastapi", doc.Repo.Framework)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}
