// ABOUTME: Evaluation case definitions with ground truth for the answer pipeline
// ABOUTME: Cases come from a YAML file or the built-in campus set
package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Case is one question with its expected outcome
type Case struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Question string `yaml:"question" json:"question"`

	// ExpectStatus is the answer status the gate should lead to
	ExpectStatus models.AnswerStatus `yaml:"expect_status" json:"expect_status"`

	ExpectedInAnswer  []string `yaml:"expected_in_answer" json:"expected_in_answer,omitempty"`
	ForbiddenInAnswer []string `yaml:"forbidden_in_answer" json:"forbidden_in_answer,omitempty"`
	ExpectedInContext []string `yaml:"expected_in_context" json:"expected_in_context,omitempty"`
}

// Suite is the on-disk form of a case file
type Suite struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads cases from a YAML file
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse cases %s: %w", path, err)
	}
	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("%s: no cases defined", path)
	}

	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.Question == "" {
			return nil, fmt.Errorf("%s: case %d has no question", path, i+1)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case_%d", i+1)
		}
		if c.Name == "" {
			c.Name = c.Question
		}
		switch c.ExpectStatus {
		case "":
			c.ExpectStatus = models.StatusAnswered
		case models.StatusAnswered, models.StatusRejected, models.StatusFailed:
		default:
			return nil, fmt.Errorf("%s: case %s has unknown expect_status %q", path, c.ID, c.ExpectStatus)
		}
	}
	return suite.Cases, nil
}

// BuiltinCases returns the default campus evaluation set
func BuiltinCases() []Case {
	return []Case{
		{
			ID:                "admission_window",
			Name:              "Admission dates",
			Question:          "When does B.Tech CSE admission open?",
			ExpectStatus:      models.StatusAnswered,
			ExpectedInContext: []string{"admission"},
		},
		{
			ID:                "hostel_typo",
			Name:              "Misspelled hostel question",
			Question:          "What are the hostle fees at GBU?",
			ExpectStatus:      models.StatusAnswered,
			ExpectedInContext: []string{"hostel"},
		},
		{
			ID:           "capital_of_france",
			Name:         "General knowledge is declined",
			Question:     "What is the capital of France?",
			ExpectStatus: models.StatusRejected,
		},
		{
			ID:           "junk",
			Name:         "Keyboard noise is declined",
			Question:     "asdfgh qwerty zxcvb",
			ExpectStatus: models.StatusRejected,
		},
	}
}
