package domain

import "time"

type Community struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Slug              string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Name              string     `gorm:"size:255;not null" json:"name"`
	Description       *string    `gorm:"type:text" json:"description,omitempty"`
	AdminEmail        string     `gorm:"size:255;not null" json:"-"`
	AdminTokenHash    *string    `gorm:"column:admin_token_hash;size:64;uniqueIndex" json:"-"`
	AdminTokenExpires *time.Time `gorm:"column:admin_token_expires" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CommunityUpdate carries only the fields the caller wants to change.
type CommunityUpdate struct {
	Name        Optional[string]
	Description Optional[string]
	AdminEmail  Optional[string]
}

func (u CommunityUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Description.Set && !u.AdminEmail.Set
}

// Columns maps the present fields to their column names.
func (u CommunityUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name.Set {
		cols["name"] = u.Name.Value
	}
	if u.Description.Set {
		cols["description"] = u.Description.Value
	}
	if u.AdminEmail.Set {
		cols["admin_email"] = u.AdminEmail.Value
	}
	return cols
}
