package model

// Group is a topical community posts can be attached to.
// The slug is part of the group URL and never changes once posts reference it.
type Group struct {
	ID          int64  `json:"id"          db:"id"`
	Title       string `json:"title"       db:"title"`
	Slug        string `json:"slug"        db:"slug"`
	Description string `json:"description" db:"description"`
}

func (g Group) String() string {
	return g.Title
}
