package types

// Group is a logical customer group. Each group maps to exactly one
// destination spreadsheet, with one tab per network.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is one social profile tracked by the analytics provider.
// Profiles belong to a group via GroupID; the orchestrator partitions the
// directory listing into per-group slices before fetching.
type Profile struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Handle  string      `json:"handle,omitempty"`
	Network NetworkKind `json:"network"`
	GroupID string      `json:"group_id"`
}

// Meta converts a Profile to the ProfileMeta handed to formatters.
func (p Profile) Meta() ProfileMeta {
	return ProfileMeta{
		ID:      p.ID,
		Name:    p.Name,
		Handle:  p.Handle,
		Network: p.Network,
		GroupID: p.GroupID,
	}
}
