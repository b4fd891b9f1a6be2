package model

import "time"

// postPreviewLength is how many characters String() keeps.
const postPreviewLength = 15

// Post is a single blog entry.
//
// AuthorID and CreatedAt are fixed at creation. GroupID is optional and is
// reset to nil by the database when the group is deleted.
//
// Author and Group are filled in by repository queries that join the related
// rows, so templates never have to look them up. Author is always set on posts
// returned by a repository; Group is nil when GroupID is nil.
type Post struct {
	ID        int64     `json:"id"        db:"id"`
	Text      string    `json:"text"      db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	AuthorID  string    `json:"authorId"  db:"author_id"`
	GroupID   *int64    `json:"groupId"   db:"group_id"`

	Author *User  `json:"author,omitempty"`
	Group  *Group `json:"group,omitempty"`
}

// String returns the first characters of the text, for admin listings and logs.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= postPreviewLength {
		return p.Text
	}
	return string(runes[:postPreviewLength])
}

// IsAuthoredBy reports whether u wrote the post. A nil user never matches.
func (p Post) IsAuthoredBy(u *User) bool {
	return u != nil && u.ID != "" && u.ID == p.AuthorID
}
