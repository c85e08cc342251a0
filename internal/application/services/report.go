package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// renderReport renders the line-oriented result text for a completed run:
// a mission header, one line per role in fetch order, the acquisition
// timestamp, and for optical scenes the cloud-cover percentage.
func renderReport(query entities.SceneQuery, scene *entities.CatalogScene, outcomes []entities.RoleOutcome) string {
	lines := []string{query.Collection.Label() + " download results:"}

	for _, outcome := range outcomes {
		lines = append(lines, fmt.Sprintf("  %s: %s", strings.ToUpper(outcome.Role), outcome.Describe()))
	}

	lines = append(lines, "Acquired: "+acquiredLabel(scene))
	if query.Collection == entities.CollectionOptical {
		lines = append(lines, "Cloud cover: "+cloudLabel(scene))
	}

	return strings.Join(lines, "\n")
}

// renderNoScene renders the empty-window report. It carries the window,
// reference date and coordinates used, so the outcome is diagnosable from
// the text alone.
func renderNoScene(query entities.SceneQuery) string {
	header := fmt.Sprintf("No %s scenes found within ±%d days.", query.Collection.Label(), query.WindowDays)
	if query.Collection == entities.CollectionOptical && query.MaxCloudCover != nil {
		header = fmt.Sprintf("No %s scenes found within ±%d days with cloud cover < %g%%.",
			query.Collection.Label(), query.WindowDays, *query.MaxCloudCover)
	}

	return header + "\n" + fmt.Sprintf("Reference date: %s, coordinates (lon=%g, lat=%g)",
		query.Center().Format("2006-01-02"), query.Longitude, query.Latitude)
}

// renderNoAssets renders the distinct report for an optical scene carrying
// none of the downloadable bands
func renderNoAssets() string {
	return "No downloadable RGB assets found for this scene."
}

func acquiredLabel(scene *entities.CatalogScene) string {
	if scene == nil || scene.Acquired == nil {
		return "unknown"
	}
	return scene.Acquired.UTC().Format(time.RFC3339)
}

func cloudLabel(scene *entities.CatalogScene) string {
	if scene == nil || scene.CloudCover == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *scene.CloudCover)
}
