// Package line maps coordinates to transit line labels. The resolver only
// needs to produce a stable, repeatable label good enough to key a shared
// room, not a geodetically exact match.
package line

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/RyujiTanaka899/train-chat-app/internal/db"
)

// Reference anchors a line to a point and a catchment radius in planar
// degrees around it.
type Reference struct {
	Label     string
	Lat       float64
	Lng       float64
	RadiusDeg float64
}

type Resolver struct {
	refs []Reference
}

func New(refs []Reference) *Resolver {
	return &Resolver{refs: refs}
}

// Default returns a resolver over the built-in reference table covering the
// Jabodetabek commuter lines.
func Default() *Resolver {
	return New([]Reference{
		{Label: "Bogor Line", Lat: -6.3, Lng: 106.82, RadiusDeg: 0.25},
		{Label: "Cikarang Line", Lat: -6.22, Lng: 107.05, RadiusDeg: 0.25},
		{Label: "Rangkasbitung Line", Lat: -6.24, Lng: 106.6, RadiusDeg: 0.25},
		{Label: "Tangerang Line", Lat: -6.18, Lng: 106.65, RadiusDeg: 0.15},
		{Label: "Tanjung Priok Line", Lat: -6.11, Lng: 106.88, RadiusDeg: 0.15},
	})
}

// Resolve returns the first reference whose radius contains the point.
func (r *Resolver) Resolve(lat, lng float64) (string, bool) {
	for _, ref := range r.refs {
		dLat := lat - ref.Lat
		dLng := lng - ref.Lng
		if math.Sqrt(dLat*dLat+dLng*dLng) < ref.RadiusDeg {
			return ref.Label, true
		}
	}
	return "", false
}

// LoadFromDB reads the reference table from transit_lines, falling back to
// the built-in table when the query fails or the table is empty.
func LoadFromDB(ctx context.Context, q db.Querier) *Resolver {
	rows, err := q.Query(ctx, `
		SELECT label, ref_lat, ref_lng, radius_deg
		FROM transit_lines
		ORDER BY priority, label
	`)
	if err != nil {
		log.Printf("transit_lines query failed, using built-in table: %v", err)
		return Default()
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var ref Reference
		if err := rows.Scan(&ref.Label, &ref.Lat, &ref.Lng, &ref.RadiusDeg); err != nil {
			log.Printf("transit_lines scan failed, using built-in table: %v", err)
			return Default()
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return Default()
	}
	return New(refs)
}

// Slug derives the room key for a line label. Stable across repeated
// boardings of the same line, distinct across different lines.
func Slug(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
}
