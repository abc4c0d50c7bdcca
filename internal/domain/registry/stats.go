package registry

// HubStats is a point-in-time census of the registry, exposed on the
// health endpoint.
type HubStats struct {
	OnlineUsers int `json:"online_users"`
	Sessions    int `json:"sessions"`
}
