package events

import "time"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event types
const (
	TypeProjectCreated     = "project.created"
	TypeProjectUpdated     = "project.updated"
	TypeProjectViewChanged = "project.view_changed"
	TypeEntityCreated      = "entity.created"
	TypeEntityUpdated      = "entity.updated"
	TypeEntityDeleted      = "entity.deleted"
)

// Entity kinds carried by entity events
const (
	KindAct       = "act"
	KindCharacter = "character"
	KindPlotPoint = "plotPoint"
	KindScene     = "scene"
)

// ProjectCreated is raised when a new project is created
type ProjectCreated struct {
	BaseEvent
	Title string `json:"title"`
}

// NewProjectCreated creates a ProjectCreated event
func NewProjectCreated(projectID, title string, version int, timestamp time.Time) ProjectCreated {
	return ProjectCreated{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   TypeProjectCreated,
			Timestamp:   timestamp,
			Version:     version,
		},
		Title: title,
	}
}

// ProjectUpdated is raised when project metadata changes
type ProjectUpdated struct {
	BaseEvent
	Title  string `json:"title"`
	Status string `json:"status"`
}

// NewProjectUpdated creates a ProjectUpdated event
func NewProjectUpdated(projectID, title, status string, version int, timestamp time.Time) ProjectUpdated {
	return ProjectUpdated{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   TypeProjectUpdated,
			Timestamp:   timestamp,
			Version:     version,
		},
		Title:  title,
		Status: status,
	}
}

// ProjectViewChanged is raised by lightweight view updates
type ProjectViewChanged struct {
	BaseEvent
	ZoomLevel        string `json:"zoom_level"`
	FocusedElementID string `json:"focused_element_id,omitempty"`
	CurrentActID     string `json:"current_act_id"`
}

// NewProjectViewChanged creates a ProjectViewChanged event
func NewProjectViewChanged(projectID, zoom, focusedID, actID string, version int, timestamp time.Time) ProjectViewChanged {
	return ProjectViewChanged{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   TypeProjectViewChanged,
			Timestamp:   timestamp,
			Version:     version,
		},
		ZoomLevel:        zoom,
		FocusedElementID: focusedID,
		CurrentActID:     actID,
	}
}

// EntityChanged is raised for act, character, plot point and scene mutations
type EntityChanged struct {
	BaseEvent
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
	ParentID string `json:"parent_id,omitempty"`
}

// NewEntityChanged creates an EntityChanged event of the given type
func NewEntityChanged(eventType, projectID, kind, entityID, parentID string, version int, timestamp time.Time) EntityChanged {
	return EntityChanged{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     version,
		},
		Kind:     kind,
		EntityID: entityID,
		ParentID: parentID,
	}
}
