package migration

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is a parsed migration plan document: YAML frontmatter describing the
// migration, followed by a markdown body whose checklist lines are the
// migration's tasks.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Plan struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Owner      string `yaml:"owner"`
	PRStrategy string `yaml:"pr_strategy"` // e.g. "step-per-pr"

	// Body is the markdown after the frontmatter. Checklist analysis runs
	// over this text.
	Body string `yaml:"-"`
}

var frontmatterDelimiter = regexp.MustCompile(`^---\s*$`)

// ParsePlan parses a plan document. Frontmatter is optional: a document
// without a leading --- block is returned with an empty header and the
// whole document as body.
func ParsePlan(data []byte) (*Plan, error) {
	text := string(data)

	frontmatter, body, ok := splitFrontmatter(text)
	if !ok {
		return &Plan{Body: text}, nil
	}

	plan := &Plan{}
	if err := yaml.Unmarshal([]byte(frontmatter), plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan frontmatter: %w", err)
	}
	plan.Body = body

	return plan, nil
}

// Tasks analyzes the checklist in the plan body.
func (p *Plan) Tasks() TaskInfo {
	return AnalyzeTasks(p.Body)
}

// splitFrontmatter splits a document into YAML frontmatter and body. The
// third return is false when no well-formed frontmatter block exists.
func splitFrontmatter(text string) (frontmatter, body string, ok bool) {
	lines := strings.Split(text, "\n")
	if len(lines) < 3 || !frontmatterDelimiter.MatchString(strings.TrimSpace(lines[0])) {
		return "", "", false
	}

	closingIdx := -1
	for i := 1; i < len(lines); i++ {
		if frontmatterDelimiter.MatchString(strings.TrimSpace(lines[i])) {
			closingIdx = i
			break
		}
	}
	if closingIdx < 0 {
		return "", "", false
	}

	frontmatter = strings.Join(lines[1:closingIdx], "\n")
	body = strings.Join(lines[closingIdx+1:], "\n")
	return frontmatter, body, true
}
