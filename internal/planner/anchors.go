package planner

import (
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// Anchors partitions route clusters into fixed points and free stops.
type Anchors struct {
	Start       *models.Cluster
	End         *models.Cluster
	AssistantAM *models.Cluster
	AssistantPM *models.Cluster
	// Free holds every cluster that is not one of the anchors above, in input order.
	Free []models.Cluster
}

// FindAnchors picks the first start, first final, first AM assistant and
// first PM assistant cluster. It returns ErrNoRoute variants when the
// clusters cannot be routed.
func FindAnchors(clusters []models.Cluster) (*Anchors, error) {
	if len(clusters) < 2 {
		return nil, ErrTooFewClusters
	}

	a := &Anchors{}
	for i := range clusters {
		c := &clusters[i]
		if a.Start == nil && c.IsStart {
			a.Start = c
		}
		if a.End == nil && c.IsFinal {
			a.End = c
		}
		if a.AssistantAM == nil && c.IsAssistantFor(models.ShiftAM) {
			a.AssistantAM = c
		}
		if a.AssistantPM == nil && c.IsAssistantFor(models.ShiftPM) {
			a.AssistantPM = c
		}
	}

	if a.Start == nil {
		return nil, ErrMissingStart
	}
	if a.End == nil {
		return nil, ErrMissingEnd
	}

	for i := range clusters {
		c := &clusters[i]
		if a.isAnchor(c) {
			continue
		}
		a.Free = append(a.Free, *c)
	}
	return a, nil
}

// isAnchor compares by identity, never by coordinate.
func (a *Anchors) isAnchor(c *models.Cluster) bool {
	return c == a.Start || c == a.End || c == a.AssistantAM || c == a.AssistantPM
}

// Waypoints returns [assistantAM?, free..., assistantPM?].
func (a *Anchors) Waypoints(free []models.Cluster) []models.Cluster {
	out := make([]models.Cluster, 0, len(free)+2)
	if a.AssistantAM != nil {
		out = append(out, *a.AssistantAM)
	}
	out = append(out, free...)
	if a.AssistantPM != nil {
		out = append(out, *a.AssistantPM)
	}
	return out
}

// VirtualOrigin is the fixed point the free stops are optimized from.
func (a *Anchors) VirtualOrigin() *models.Cluster {
	if a.AssistantAM != nil {
		return a.AssistantAM
	}
	return a.Start
}

// VirtualDestination is the fixed point the free stops are optimized towards.
func (a *Anchors) VirtualDestination() *models.Cluster {
	if a.AssistantPM != nil {
		return a.AssistantPM
	}
	return a.End
}

func coordinates(clusters []models.Cluster) []models.Coordinates {
	out := make([]models.Coordinates, len(clusters))
	for i := range clusters {
		out[i] = clusters[i].Coords()
	}
	return out
}
