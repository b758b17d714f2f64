package models

// Cluster is a group of stops within tolerance of one anchor point. It is
// rendered as one map marker and routed as one waypoint.
//
// Clusters are derived data: they are rebuilt from scratch on every route
// data update and never persisted.
type Cluster struct {
	// Index is the creation order of the cluster within one clustering pass.
	Index int `json:"index"`
	// Cell is the s2 cell token of the anchor, usable as a stable UI key.
	Cell string `json:"cell"`

	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Items []Stop  `json:"items"`

	IsStart    bool   `json:"isStart"`
	IsFinal    bool   `json:"isFinal"`
	StopType   string `json:"stopType"`
	TimeShift  string `json:"timeShift"`
	HideMarker bool   `json:"hideMarker"`
}

// Coords returns the anchor coordinate.
func (c *Cluster) Coords() Coordinates {
	return Coordinates{Lat: c.Lat, Lng: c.Lng}
}

// IsAssistant reports whether any member promoted the cluster to an assistant stop.
func (c *Cluster) IsAssistant() bool {
	return c.StopType == StopTypeAssistant
}

// IsAssistantFor reports whether the cluster is the assistant stop of the given shift.
func (c *Cluster) IsAssistantFor(shift string) bool {
	return c.IsAssistant() && c.TimeShift == shift
}

// Names returns the student names of all members in insertion order.
func (c *Cluster) Names() []string {
	names := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		names = append(names, item.StudentName)
	}
	return names
}
