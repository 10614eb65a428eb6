package agent

import "time"

// Profile is the listing agent shown next to a listing and in the agent
// directory.
type Profile struct {
	ID        string
	FullName  string
	Email     string
	Phone     *string
	Agency    string
	CreatedAt time.Time
}
