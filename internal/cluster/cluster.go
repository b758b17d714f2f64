package cluster

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/raedapplebanon-spec/route-map/internal/geo"
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// DefaultToleranceMeters is the merge radius used when none is configured.
const DefaultToleranceMeters = 15.0

// TieBreak selects which qualifying cluster a stop joins when several are in range.
type TieBreak string

const (
	// TieBreakFirst joins the earliest created cluster in range.
	TieBreakFirst TieBreak = "first"
	// TieBreakNearest joins the closest cluster in range, earliest on equal distance.
	TieBreakNearest TieBreak = "nearest"
)

// Anchor selects how a cluster's coordinate evolves as members join.
type Anchor string

const (
	// AnchorFirst keeps the first member's coordinate.
	AnchorFirst Anchor = "first"
	// AnchorCentroid moves the anchor to the running mean of member coordinates.
	AnchorCentroid Anchor = "centroid"
)

// Options configures a Clusterer.
type Options struct {
	ToleranceMeters float64
	TieBreak        TieBreak
	Anchor          Anchor
}

// DefaultOptions returns the legacy behavior: 15m, first-match, first-member anchor.
func DefaultOptions() Options {
	return Options{
		ToleranceMeters: DefaultToleranceMeters,
		TieBreak:        TieBreakFirst,
		Anchor:          AnchorFirst,
	}
}

// InvalidStop describes a stop skipped during clustering.
type InvalidStop struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// Result is the output of one clustering pass.
type Result struct {
	Clusters []models.Cluster `json:"clusters"`
	Invalid  []InvalidStop    `json:"invalidStops"`
}

// Clusterer groups nearby stops into clusters in a single greedy pass.
type Clusterer struct {
	Options Options
	Logger  *slog.Logger
}

// NewClusterer returns a Clusterer. Unknown tie-break or anchor values fall
// back to the defaults.
func NewClusterer(opts Options, logger *slog.Logger) *Clusterer {
	if opts.TieBreak != TieBreakNearest {
		opts.TieBreak = TieBreakFirst
	}
	if opts.Anchor != AnchorCentroid {
		opts.Anchor = AnchorFirst
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Clusterer{Options: opts, Logger: logger}
}

// Cluster groups stops with the legacy first-match, first-anchor rules.
func Cluster(stops []models.Stop, toleranceMeters float64) []models.Cluster {
	c := NewClusterer(Options{ToleranceMeters: toleranceMeters}, nil)
	return c.Cluster(stops).Clusters
}

// Cluster processes stops in input order. Each valid stop joins an existing
// cluster whose anchor is strictly closer than the tolerance, otherwise it
// starts a new cluster. Clusters are never merged with each other.
func (c *Clusterer) Cluster(stops []models.Stop) Result {
	result := Result{Clusters: make([]models.Cluster, 0, len(stops))}
	tolerance := c.Options.ToleranceMeters

	for i, stop := range stops {
		if !geo.IsValidCoordinate(stop.Lat, stop.Lng) {
			reason := fmt.Sprintf("invalid coordinate (%v, %v)", stop.Lat, stop.Lng)
			c.Logger.Warn("skipping stop", "position", i, "reason", reason, "student", stop.StudentName)
			result.Invalid = append(result.Invalid, InvalidStop{Position: i, Reason: reason})
			continue
		}

		stop.StopType = models.NormalizeStopType(stop.StopType)
		stop.TimeShift = models.NormalizeTimeShift(stop.TimeShift)

		target := c.findTarget(result.Clusters, stop, tolerance)
		if target < 0 {
			result.Clusters = append(result.Clusters, newCluster(len(result.Clusters), stop))
			continue
		}
		c.merge(&result.Clusters[target], stop)
	}

	return result
}

// findTarget returns the index of the cluster the stop joins, or -1.
// NaN or non-positive tolerances never match since no distance is below them.
func (c *Clusterer) findTarget(clusters []models.Cluster, stop models.Stop, tolerance float64) int {
	if !(tolerance > 0) {
		return -1
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := range clusters {
		d := geo.HaversineDistance(stop.Lat, stop.Lng, clusters[i].Lat, clusters[i].Lng)
		if d >= tolerance {
			continue
		}
		if c.Options.TieBreak == TieBreakFirst {
			return i
		}
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	return best
}

// newCluster starts a cluster at stop, taking over its normalized type and shift.
func newCluster(index int, stop models.Stop) models.Cluster {
	cl := models.Cluster{
		Index:      index,
		Cell:       geo.CellToken(stop.Lat, stop.Lng, geo.CellLevel),
		Lat:        stop.Lat,
		Lng:        stop.Lng,
		Items:      []models.Stop{stop},
		IsStart:    stop.IsStart,
		IsFinal:    stop.IsFinal,
		StopType:   stop.StopType,
		TimeShift:  stop.TimeShift,
		HideMarker: stop.HideMarker,
	}
	return cl
}

// merge folds stop into cl. Start/final flags are OR-ed, hideMarker is
// AND-ed and the assistant designation is never downgraded.
func (c *Clusterer) merge(cl *models.Cluster, stop models.Stop) {
	cl.Items = append(cl.Items, stop)
	cl.IsStart = cl.IsStart || stop.IsStart
	cl.IsFinal = cl.IsFinal || stop.IsFinal
	cl.HideMarker = cl.HideMarker && stop.HideMarker

	if stop.IsAssistant() {
		cl.StopType = models.StopTypeAssistant
		if stop.TimeShift != "" {
			cl.TimeShift = stop.TimeShift
		}
	}

	if c.Options.Anchor == AnchorCentroid {
		n := float64(len(cl.Items))
		cl.Lat += (stop.Lat - cl.Lat) / n
		cl.Lng += (stop.Lng - cl.Lng) / n
		cl.Cell = geo.CellToken(cl.Lat, cl.Lng, geo.CellLevel)
	}
}
