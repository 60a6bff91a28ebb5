package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tkloetzk/smartgarden/internal/models"
)

// TaskStatus is the display status of a single task relative to now.
type TaskStatus struct {
	DueIn       string          `json:"due_in"`
	Priority    models.Priority `json:"priority"`
	Overdue     bool            `json:"overdue"`
	DaysOverdue int             `json:"days_overdue,omitempty"`
}

// TaskGroup is one actionable dashboard card: the same task, due the same
// day, across every plant of one variety.
type TaskGroup struct {
	Category    models.TaskCategory `json:"category"`
	VarietyName string              `json:"variety_name"`
	TaskName    string              `json:"task_name"`
	Product     string              `json:"product,omitempty"`
	DueDate     time.Time           `json:"due_date"`
	DueLabel    string              `json:"due_label"`
	Priority    models.Priority     `json:"priority"`
	PlantIDs    []string            `json:"plant_ids"`
	PlantNames  []string            `json:"plant_names"`
	PlantCount  int                 `json:"plant_count"`
	Tasks       []ScheduledTask     `json:"tasks"`
}

// CategoryGroup is one dashboard section. AutoExpand is set when any task in
// the section is overdue or high priority.
type CategoryGroup struct {
	Category   models.TaskCategory `json:"category"`
	AutoExpand bool                `json:"auto_expand"`
	Groups     []TaskGroup         `json:"groups"`
}

// categoryKeywords is checked in order; the first bucket whose keyword
// matches the task name wins.
var categoryKeywords = []struct {
	category models.TaskCategory
	keywords []string
}{
	{models.TaskWatering, []string{"water", "moisture"}},
	{models.TaskFertilizing, []string{"fertiliz", "feed", "nutrient"}},
	{models.TaskObservation, []string{"health", "check", "observe", "pest"}},
	{models.TaskMaintenance, []string{"prune", "transplant", "clean", "trim"}},
}

var categoryOrder = []models.TaskCategory{
	models.TaskWatering,
	models.TaskFertilizing,
	models.TaskObservation,
	models.TaskMaintenance,
	models.TaskOther,
}

// CategorizeTask buckets a task by case-insensitive keyword match on its
// name. Names matching nothing land in the "other" bucket rather than being
// dropped.
func CategorizeTask(name string) models.TaskCategory {
	lower := strings.ToLower(name)
	for _, bucket := range categoryKeywords {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lower, keyword) {
				return bucket.category
			}
		}
	}
	return models.TaskOther
}

// ComputeStatus derives the due label and priority for one task. Overdue
// always forces the top severity tier, regardless of how near or far the
// task would otherwise rank.
func ComputeStatus(task ScheduledTask, now time.Time) TaskStatus {
	diff := daysBetween(now, task.DueDate)

	switch {
	case diff < 0:
		days := -diff
		label := fmt.Sprintf("%d days overdue", days)
		if days == 1 {
			label = "1 day overdue"
		}
		return TaskStatus{DueIn: label, Priority: models.PriorityOverdue, Overdue: true, DaysOverdue: days}
	case diff == 0:
		return TaskStatus{DueIn: "due today", Priority: models.PriorityHigh}
	case diff == 1:
		return TaskStatus{DueIn: "due tomorrow", Priority: models.PriorityHigh}
	case diff <= 3:
		return TaskStatus{DueIn: fmt.Sprintf("due in %d days", diff), Priority: models.PriorityMedium}
	default:
		return TaskStatus{DueIn: fmt.Sprintf("due in %d days", diff), Priority: models.PriorityLow}
	}
}

// ClassifyTasks buckets tasks by category and merges identical ones into
// group cards. Tasks merge only when variety, task name, product, and due
// day all agree; under-merging is safe, over-merging is a bug. Empty
// categories are omitted. Output order is deterministic for identical input
// sets regardless of input order.
func ClassifyTasks(tasks []ScheduledTask, now time.Time) []CategoryGroup {
	type mergeKey struct {
		category models.TaskCategory
		variety  string
		taskName string
		product  string
		dueDay   string
	}

	merged := make(map[mergeKey]*TaskGroup)
	for _, task := range tasks {
		category := task.Category
		if category == "" {
			category = CategorizeTask(task.TaskName)
		}
		key := mergeKey{
			category: category,
			variety:  task.VarietyName,
			taskName: task.TaskName,
			product:  task.Product,
			dueDay:   task.DueDate.Format("2006-01-02"),
		}
		group, ok := merged[key]
		if !ok {
			status := ComputeStatus(task, now)
			group = &TaskGroup{
				Category:    category,
				VarietyName: task.VarietyName,
				TaskName:    task.TaskName,
				Product:     task.Product,
				DueDate:     task.DueDate,
				DueLabel:    status.DueIn,
				Priority:    status.Priority,
			}
			merged[key] = group
		}
		group.PlantIDs = append(group.PlantIDs, task.PlantID)
		group.PlantNames = append(group.PlantNames, task.PlantName)
		group.PlantCount++
		group.Tasks = append(group.Tasks, task)
	}

	byCategory := make(map[models.TaskCategory][]TaskGroup)
	for _, group := range merged {
		sortGroupMembers(group)
		byCategory[group.Category] = append(byCategory[group.Category], *group)
	}

	var result []CategoryGroup
	for _, category := range categoryOrder {
		groups := byCategory[category]
		if len(groups) == 0 {
			continue
		}
		sort.Slice(groups, func(i, j int) bool {
			if !groups[i].DueDate.Equal(groups[j].DueDate) {
				return groups[i].DueDate.Before(groups[j].DueDate)
			}
			if groups[i].TaskName != groups[j].TaskName {
				return groups[i].TaskName < groups[j].TaskName
			}
			return groups[i].VarietyName < groups[j].VarietyName
		})

		autoExpand := false
		for _, group := range groups {
			if group.Priority == models.PriorityOverdue || group.Priority == models.PriorityHigh {
				autoExpand = true
				break
			}
		}
		result = append(result, CategoryGroup{
			Category:   category,
			AutoExpand: autoExpand,
			Groups:     groups,
		})
	}
	return result
}

func sortGroupMembers(group *TaskGroup) {
	order := make([]int, len(group.Tasks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return group.Tasks[order[a]].PlantID < group.Tasks[order[b]].PlantID
	})

	ids := make([]string, len(order))
	names := make([]string, len(order))
	tasks := make([]ScheduledTask, len(order))
	for i, idx := range order {
		ids[i] = group.PlantIDs[idx]
		names[i] = group.PlantNames[idx]
		tasks[i] = group.Tasks[idx]
	}
	group.PlantIDs = ids
	group.PlantNames = names
	group.Tasks = tasks
}

// RelevantTasks picks what one plant should surface on the dashboard: the
// single most recently overdue task when anything is overdue, otherwise the
// single next upcoming task. A plant with overdue work deliberately shows
// nothing upcoming until it is resolved.
func RelevantTasks(tasks []ScheduledTask, now time.Time) []ScheduledTask {
	var mostRecentOverdue *ScheduledTask
	var nextUpcoming *ScheduledTask

	for i := range tasks {
		task := &tasks[i]
		diff := daysBetween(now, task.DueDate)
		if diff < 0 {
			if mostRecentOverdue == nil || task.DueDate.After(mostRecentOverdue.DueDate) {
				mostRecentOverdue = task
			}
		} else {
			if nextUpcoming == nil || task.DueDate.Before(nextUpcoming.DueDate) {
				nextUpcoming = task
			}
		}
	}

	if mostRecentOverdue != nil {
		return []ScheduledTask{*mostRecentOverdue}
	}
	if nextUpcoming != nil {
		return []ScheduledTask{*nextUpcoming}
	}
	return nil
}
