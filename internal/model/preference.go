package model

import "time"

// PreferenceGraph maps a category label to the user's ordered preferences.
type PreferenceGraph struct {
	Owner     string              `json:"owner"`
	Graph     map[string][]string `json:"graph"`
	UpdatedAt time.Time           `json:"updated_at"`
}
