package models

import "time"

// Preference keys held by the durable store.
const (
	PrefTheme          = "theme"
	PrefUnit           = "unit"
	PrefNotifications  = "notifications"
	PrefLocationAccess = "locationAccess"
)

// Preference is one persisted key/value setting.
type Preference struct {
	Key       string `json:"key" db:"pref_key"`
	Value     string `json:"value" db:"pref_value"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"` // unix seconds
}

// Updated returns UpdatedAt as a time.
func (p *Preference) Updated() time.Time {
	return time.Unix(p.UpdatedAt, 0).UTC()
}
