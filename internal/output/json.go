package output

import (
	"encoding/json"

	"repolens/internal/engine/deptree"
)

type JSONGenerator struct {
	forest []*deptree.Node
}

func NewJSONGenerator(forest []*deptree.Node) *JSONGenerator {
	return &JSONGenerator{forest: forest}
}

type jsonDocument struct {
	Roots []*deptree.Node `json:"roots"`
	Stats deptree.Stats   `json:"stats"`
}

func (j *JSONGenerator) Generate() (string, error) {
	roots := j.forest
	if roots == nil {
		roots = []*deptree.Node{}
	}
	data, err := json.MarshalIndent(jsonDocument{Roots: roots, Stats: deptree.Collect(roots)}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
