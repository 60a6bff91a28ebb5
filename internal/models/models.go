package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Stage is one phase of a plant's growth lifecycle. Varieties use a subset of
// the canonical order; CanonicalStages defines chronology for all of them.
type Stage string

const (
	StageGermination       Stage = "germination"
	StageSeedling          Stage = "seedling"
	StageVegetative        Stage = "vegetative"
	StageFlowering         Stage = "flowering"
	StageFruiting          Stage = "fruiting"
	StageMaturation        Stage = "maturation"
	StageOngoingProduction Stage = "ongoing-production"
	StageHarvest           Stage = "harvest"
)

var CanonicalStages = []Stage{
	StageGermination,
	StageSeedling,
	StageVegetative,
	StageFlowering,
	StageFruiting,
	StageMaturation,
	StageOngoingProduction,
	StageHarvest,
}

// StageIndex returns the stage's position in the canonical order, or -1 for
// an unknown stage name.
func StageIndex(stage Stage) int {
	for i, s := range CanonicalStages {
		if s == stage {
			return i
		}
	}
	return -1
}

type VarietyCategory string

const (
	CategoryLeafyGreens    VarietyCategory = "leafy-greens"
	CategoryFruitingPlants VarietyCategory = "fruiting-plants"
	CategoryRootVegetables VarietyCategory = "root-vegetables"
	CategoryHerbs          VarietyCategory = "herbs"
	CategoryBerries        VarietyCategory = "berries"
)

type ActivityType string

const (
	ActivityWater      ActivityType = "water"
	ActivityFertilize  ActivityType = "fertilize"
	ActivityObserve    ActivityType = "observe"
	ActivityHarvest    ActivityType = "harvest"
	ActivityTransplant ActivityType = "transplant"
	ActivityPrune      ActivityType = "prune"
	ActivityPhoto      ActivityType = "photo"
	ActivityNote       ActivityType = "note"
	ActivityLighting   ActivityType = "lighting"
	ActivityThin       ActivityType = "thin"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityWater, ActivityFertilize, ActivityObserve, ActivityHarvest,
		ActivityTransplant, ActivityPrune, ActivityPhoto, ActivityNote,
		ActivityLighting, ActivityThin:
		return true
	}
	return false
}

// TaskCategory buckets generated care tasks for the dashboard.
type TaskCategory string

const (
	TaskWatering    TaskCategory = "watering"
	TaskFertilizing TaskCategory = "fertilizing"
	TaskObservation TaskCategory = "observation"
	TaskMaintenance TaskCategory = "maintenance"
	TaskOther       TaskCategory = "other"
)

type Priority string

const (
	PriorityLow     Priority = "low"
	PriorityMedium  Priority = "medium"
	PriorityHigh    Priority = "high"
	PriorityOverdue Priority = "overdue"
)

type User struct {
	ID          string
	OIDCSubject string
	Email       string
	Name        string
	AvatarURL   string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleItem is one task template inside a variety's per-stage care
// protocol. Offsets are days relative to the stage start.
type ScheduleItem struct {
	TaskName      string `json:"task_name" yaml:"task_name"`
	StartDays     int    `json:"start_days" yaml:"start_days"`
	FrequencyDays int    `json:"frequency_days" yaml:"frequency_days"`
	RepeatCount   int    `json:"repeat_count" yaml:"repeat_count"`
	Product       string `json:"product,omitempty" yaml:"product,omitempty"`
	Dilution      string `json:"dilution,omitempty" yaml:"dilution,omitempty"`
	Amount        string `json:"amount,omitempty" yaml:"amount,omitempty"`
	Method        string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Variety is a reusable plant-type template: how long each growth stage lasts
// and what care work each stage schedules.
type Variety struct {
	ID              string
	Name            string
	Category        VarietyCategory
	GrowthTimeline  map[Stage]int
	CareProtocol    map[Stage][]ScheduleItem
	CreatedByUserID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReminderPreferences maps task category to enabled/disabled. A missing key
// means the category is enabled.
type ReminderPreferences map[TaskCategory]bool

func (p ReminderPreferences) Enabled(category TaskCategory) bool {
	if p == nil {
		return true
	}
	enabled, ok := p[category]
	if !ok {
		return true
	}
	return enabled
}

type Plant struct {
	ID        string
	UserID    string
	Name      string
	VarietyID string

	PlantedDate      time.Time
	ConfirmedStage   *Stage
	StageConfirmedAt *time.Time

	// GrowthRateModifier scales expected stage durations; 1.0 is neutral.
	GrowthRateModifier float64

	Active        bool
	ReminderPrefs ReminderPreferences

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ActivityDetails struct {
	Amount   string `json:"amount,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Product  string `json:"product,omitempty"`
	Dilution string `json:"dilution,omitempty"`
	Method   string `json:"method,omitempty"`
}

// CareActivity is an immutable record of one completed care action. Rows are
// only ever inserted, never updated.
type CareActivity struct {
	ID       string
	PlantID  string
	Type     ActivityType
	LoggedAt time.Time
	Details  ActivityDetails
	Note     string
}

// TaskBypass records that a generated task instance was intentionally
// skipped. Analytics input only; never mutates the schedule.
type TaskBypass struct {
	ID            string
	TaskID        string
	PlantID       string
	TaskType      TaskCategory
	Reason        string
	ScheduledDate time.Time
	BypassedAt    time.Time
	PlantStage    Stage
	Moisture      *string
	Weather       *string
}

type APIToken struct {
	ID              string
	Name            string
	TokenHash       string
	Scope           string
	CreatedByUserID string
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}
