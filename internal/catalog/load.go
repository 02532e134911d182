package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/learning-beast/internal/model"
)

const (
	questionsBase = "questions"
	nodesBase     = "nodes"
)

var fixtureExts = []string{".json", ".yaml", ".yml"}

// LoadDir loads questions.{json,yaml,yml} and nodes.{json,yaml,yml} from dir.
func LoadDir(dir string) (*Catalog, error) {
	qPath, err := findFixture(dir, questionsBase)
	if err != nil {
		return nil, err
	}
	nPath, err := findFixture(dir, nodesBase)
	if err != nil {
		return nil, err
	}
	return LoadFiles(qPath, nPath)
}

// LoadFiles loads a catalog from explicit question and node fixture paths.
func LoadFiles(questionsPath, nodesPath string) (*Catalog, error) {
	questions, nodes, err := ReadFiles(questionsPath, nodesPath)
	if err != nil {
		return nil, err
	}
	return New(questions, nodes)
}

// ReadFiles decodes fixture files without validating them.
func ReadFiles(questionsPath, nodesPath string) ([]model.Question, []model.LearningNode, error) {
	var questions []model.Question
	if err := readFixture(questionsPath, &questions); err != nil {
		return nil, nil, err
	}
	var nodes []model.LearningNode
	if err := readFixture(nodesPath, &nodes); err != nil {
		return nil, nil, err
	}
	return questions, nodes, nil
}

func findFixture(dir, base string) (string, error) {
	for _, ext := range fixtureExts {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("missing data file %s/%s.{json,yaml,yml}", dir, base)
}

func readFixture(path string, dst interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, dst)
	default:
		err = json.Unmarshal(b, dst)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
