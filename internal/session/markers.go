package session

import (
	"strconv"
	"strings"

	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// Marker lists.
const (
	ListRoute     = "route"
	ListAvailable = "available"
)

// Marker kinds.
const (
	KindStart     = "start"
	KindEnd       = "end"
	KindAssistant = "assistant"
	KindStop      = "stop"
	KindAvailable = "available"
)

const (
	colorStart     = "#00c853"
	colorEnd       = "#d50000"
	colorAssistant = "#9C27B0"
	colorStop      = "#1a73e8"
	colorAvailable = "#ff9100"

	glyphPending = "..."
)

// Member is the display information of one stop inside a marker.
type Member struct {
	StudentName string `json:"studentName"`
	Details     string `json:"details"`
}

// Marker is one visible pin on the map, built from a cluster.
type Marker struct {
	ClusterIndex int      `json:"clusterIndex"`
	Cell         string   `json:"cell"`
	List         string   `json:"list"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Kind         string   `json:"kind"`
	Color        string   `json:"color"`
	Glyph        string   `json:"glyph"`
	TimeShift    string   `json:"timeShift,omitempty"`
	Names        []string `json:"names"`
	Members      []Member `json:"members"`
	Count        int      `json:"count"`
}

// BuildMarkers creates markers for the clusters of one list. Clusters whose
// members all asked to be hidden produce no marker.
func BuildMarkers(list string, clusters []models.Cluster) []Marker {
	markers := make([]Marker, 0, len(clusters))
	for i := range clusters {
		c := &clusters[i]
		if c.HideMarker {
			continue
		}

		m := Marker{
			ClusterIndex: c.Index,
			Cell:         c.Cell,
			List:         list,
			Lat:          c.Lat,
			Lng:          c.Lng,
			Names:        c.Names(),
			Members:      members(c),
			Count:        len(c.Items),
		}

		if list == ListAvailable {
			m.Kind, m.Color, m.Glyph = KindAvailable, colorAvailable, strconv.Itoa(len(c.Items))
			markers = append(markers, m)
			continue
		}

		switch {
		case c.IsStart:
			m.Kind, m.Color, m.Glyph = KindStart, colorStart, "S"
		case c.IsFinal:
			m.Kind, m.Color, m.Glyph = KindEnd, colorEnd, "E"
		case c.IsAssistant():
			m.Kind, m.Color, m.Glyph = KindAssistant, colorAssistant, "P"
			if c.TimeShift == models.ShiftAM {
				m.Glyph = "A"
			}
			m.TimeShift = c.TimeShift
		default:
			m.Kind, m.Color, m.Glyph = KindStop, colorStop, glyphPending
		}
		markers = append(markers, m)
	}
	return markers
}

func members(c *models.Cluster) []Member {
	out := make([]Member, 0, len(c.Items))
	for _, item := range c.Items {
		out = append(out, Member{
			StudentName: item.StudentName,
			Details:     strings.TrimSpace(item.GradeName + " " + item.SectionName),
		})
	}
	return out
}

// applyLabels returns a copy of markers where route markers with a sequence
// number show that number.
func applyLabels(markers []Marker, labels map[int]int) []Marker {
	out := make([]Marker, len(markers))
	copy(out, markers)
	for i := range out {
		if out[i].List != ListRoute {
			continue
		}
		if seq, ok := labels[out[i].ClusterIndex]; ok {
			out[i].Glyph = strconv.Itoa(seq)
		}
	}
	return out
}

// SearchMarkers returns the first marker, route markers first, that has a
// member whose name contains query, ignoring case.
func SearchMarkers(markers []Marker, query string) (Marker, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Marker{}, false
	}
	for _, list := range []string{ListRoute, ListAvailable} {
		for _, m := range markers {
			if m.List != list {
				continue
			}
			for _, name := range m.Names {
				if strings.Contains(strings.ToLower(name), q) {
					return m, true
				}
			}
		}
	}
	return Marker{}, false
}

func markerCoordinates(markers []Marker) []models.Coordinates {
	out := make([]models.Coordinates, len(markers))
	for i, m := range markers {
		out[i] = models.Coordinates{Lat: m.Lat, Lng: m.Lng}
	}
	return out
}
