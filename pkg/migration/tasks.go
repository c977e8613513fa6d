package migration

import (
	"bufio"
	"regexp"
	"strings"
)

// Task is one markdown checklist line in a plan document.
type Task struct {
	Completed bool
	Text      string
}

// TaskInfo summarizes checklist completion for a plan document.
type TaskInfo struct {
	AllTasksComplete bool
	TotalTasks       int
	CompletedTasks   int
	Tasks            []Task
}

// checklistPattern matches markdown task list items: "- [ ] text" or
// "- [x] text". The marker is case-insensitive.
var checklistPattern = regexp.MustCompile(`^\s*-\s+\[([ xX])\]\s+(.+)$`)

// AnalyzeTasks scans a plan document line-by-line for checklist items. A
// task is completed iff its marker is non-blank. AllTasksComplete is true
// only when at least one task exists and every task is completed; a
// document with no checklist lines is never complete.
func AnalyzeTasks(content string) TaskInfo {
	info := TaskInfo{Tasks: []Task{}}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		match := checklistPattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}

		task := Task{
			Completed: match[1] != " ",
			Text:      strings.TrimSpace(match[2]),
		}
		info.Tasks = append(info.Tasks, task)
		info.TotalTasks++
		if task.Completed {
			info.CompletedTasks++
		}
	}

	info.AllTasksComplete = info.TotalTasks > 0 && info.CompletedTasks == info.TotalTasks
	return info
}
