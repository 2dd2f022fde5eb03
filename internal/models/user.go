package models

import "time"

// User is the shared identity header. Exactly one of the profile pointers is
// set, matching the user's role; admins carry none.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"` // admin, landowner, labor, machinery
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	District  string    `json:"district,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Landowner *LandownerProfile `json:"landowner,omitempty"`
	Labor     *LaborProfile     `json:"labor,omitempty"`
	Machinery *MachineryProfile `json:"machinery,omitempty"`
}

type LandownerProfile struct {
	Acres int64  `json:"acres"`
	Crops string `json:"crops"`
}

type LaborProfile struct {
	Workers int64 `json:"workers"`
}

type MachineryProfile struct {
	MachineType string `json:"machine_type"`
}

// DisplayName returns the human name, falling back to the username.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
