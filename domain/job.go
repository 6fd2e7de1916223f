package domain

import "time"

type Job struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CommunityID   uint       `gorm:"not null;index" json:"community_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Company       string     `gorm:"size:255;not null" json:"company"`
	Location      string     `gorm:"size:255;not null" json:"location"`
	Category      *string    `gorm:"size:255" json:"category,omitempty"`
	JobType       string     `gorm:"size:64;not null" json:"job_type"`
	Remote        bool       `gorm:"not null;default:false" json:"remote"`
	SalaryMin     *int64     `json:"salary_min,omitempty"`
	SalaryMax     *int64     `json:"salary_max,omitempty"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	ContactInfo   *string    `gorm:"size:255" json:"contact_info,omitempty"`
	PosterEmail   string     `gorm:"size:255;not null" json:"-"`
	EditTokenHash *string    `gorm:"column:edit_token_hash;size:64;uniqueIndex" json:"-"`
	TokenExpires  *time.Time `gorm:"column:token_expires" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`

	Community Community `gorm:"foreignKey:CommunityID;references:ID" json:"-"`
}

// NewJob is the insert payload for a posting.
type NewJob struct {
	CommunityID uint
	Title       string
	Company     string
	Location    string
	Category    *string
	JobType     string
	Remote      bool
	SalaryMin   *int64
	SalaryMax   *int64
	Description string
	ContactInfo *string
	PosterEmail string
}

// JobUpdate is a partial update. A field changes only when Set is true,
// so an explicit empty string clears the column.
type JobUpdate struct {
	Title       Optional[string]
	Company     Optional[string]
	Location    Optional[string]
	Category    Optional[*string]
	JobType     Optional[string]
	Remote      Optional[bool]
	SalaryMin   Optional[*int64]
	SalaryMax   Optional[*int64]
	Description Optional[string]
	ContactInfo Optional[*string]
}

func (u JobUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Title.Set {
		cols["title"] = u.Title.Value
	}
	if u.Company.Set {
		cols["company"] = u.Company.Value
	}
	if u.Location.Set {
		cols["location"] = u.Location.Value
	}
	if u.Category.Set {
		cols["category"] = u.Category.Value
	}
	if u.JobType.Set {
		cols["job_type"] = u.JobType.Value
	}
	if u.Remote.Set {
		cols["remote"] = u.Remote.Value
	}
	if u.SalaryMin.Set {
		cols["salary_min"] = u.SalaryMin.Value
	}
	if u.SalaryMax.Set {
		cols["salary_max"] = u.SalaryMax.Value
	}
	if u.Description.Set {
		cols["description"] = u.Description.Value
	}
	if u.ContactInfo.Set {
		cols["contact_info"] = u.ContactInfo.Value
	}
	return cols
}
