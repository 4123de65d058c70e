package models

// Role is a static training profile. Persona and Topics frame the scenario
// generation prompt; the rest is display metadata.
type Role struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Persona     string `json:"-"`
	Topics      string `json:"-"`
}
