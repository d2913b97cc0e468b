package dto

// NodeResource describes one resource dimension of a cluster node
type NodeResource struct {
	Capacity   string  `json:"capacity"`
	Usage      string  `json:"usage"`
	Percentage float64 `json:"percentage"`
}

// NodeStats is the per-node entry of the admin cluster overview
type NodeStats struct {
	Name           string       `json:"name"`
	Status         string       `json:"status"`
	Roles          []string     `json:"roles"`
	KubeletVersion string       `json:"kubeletVersion"`
	OSImage        string       `json:"osImage"`
	CPU            NodeResource `json:"cpu"`
	Memory         NodeResource `json:"memory"`
}

// NodeStatsResponse is the admin cluster overview payload
type NodeStatsResponse struct {
	Nodes []NodeStats `json:"nodes"`
	Total int         `json:"total"`
}
