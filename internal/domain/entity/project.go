package entity

import "time"

type ProjectStatus string

const (
	StatusDevelopment ProjectStatus = "DEVELOPMENT"
	StatusReleased    ProjectStatus = "RELEASED"
	StatusStopped     ProjectStatus = "STOPPED"
	StatusLive        ProjectStatus = "LIVE"
	StatusFinished    ProjectStatus = "FINISHED"
	StatusPaused      ProjectStatus = "PAUSED"
	StatusAbandoned   ProjectStatus = "ABANDONED"
)

type ProjectVisibility string

const (
	VisibilityPublic   ProjectVisibility = "PUBLIC"
	VisibilityPrivate  ProjectVisibility = "PRIVATE"
	VisibilityHidden   ProjectVisibility = "HIDDEN"
	VisibilityArchived ProjectVisibility = "ARCHIVED"
	VisibilityDraft    ProjectVisibility = "DRAFT"
	VisibilityDeleted  ProjectVisibility = "DELETED"
)

// Project is a record from the project-tracking API. Nullable upstream
// fields are represented by their zero value.
type Project struct {
	ID             string            `json:"project_id"`
	OwnerID        string            `json:"owner_id"`
	Name           string            `json:"name"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Description    string            `json:"description,omitempty"`
	Specification  string            `json:"specification,omitempty"`
	RepoURL        string            `json:"repo_url,omitempty"`
	IconURL        string            `json:"icon_url,omitempty"`
	Status         ProjectStatus     `json:"status"`
	Deleted        bool              `json:"deleted"`
	LinkURL        string            `json:"link_url,omitempty"`
	LinkText       string            `json:"link_text,omitempty"`
	CurrentVersion string            `json:"current_version,omitempty"`
	Visibility     ProjectVisibility `json:"visibility"`
}

// IsPublic reports whether the project may be shown on the site.
func (p Project) IsPublic() bool {
	return p.Visibility == VisibilityPublic && !p.Deleted
}

// CloneProjects copies the slice. Project holds no reference fields, so a
// slice copy is a deep copy.
func CloneProjects(projects []Project) []Project {
	if projects == nil {
		return nil
	}
	out := make([]Project, len(projects))
	copy(out, projects)
	return out
}
