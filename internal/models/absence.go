// internal/models/absence.go
package models

import (
	"time"
)

// Reason is a canonical absence reason. Free text never reaches storage; it is
// classified into one of these first.
type Reason string

const (
	ReasonSick            Reason = "sick"
	ReasonRemoteNotLogged Reason = "remote_not_logged"
	ReasonUnjustified     Reason = "unjustified"
)

// Reasons lists the closed taxonomy in classification priority order.
var Reasons = []Reason{ReasonSick, ReasonRemoteNotLogged, ReasonUnjustified}

// Justified reports whether an absence for this reason is justified.
// Only sickness is.
func (r Reason) Justified() bool {
	return r == ReasonSick
}

func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

func (r Reason) String() string {
	return string(r)
}

// Absence is the single record of a user's absence on one calendar date.
// (user_id, date) is unique; a second write for the same pair updates it.
type Absence struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_absence_user_date,priority:1" json:"user_id" bson:"user_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:ux_absence_user_date,priority:2;index" json:"date" bson:"date"` // YYYY-MM-DD
	Reason    Reason    `gorm:"type:varchar(32);not null" json:"reason" bson:"reason"`
	Justified bool      `gorm:"not null;default:false" json:"justified" bson:"justified"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null" json:"created_at" bson:"created_at"` // last write
}

func (Absence) TableName() string {
	return "absences"
}

// Day parses Date back into a calendar date at UTC midnight.
func (a *Absence) Day() (time.Time, error) {
	return time.Parse("2006-01-02", a.Date)
}
