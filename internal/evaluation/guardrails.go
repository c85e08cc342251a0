package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/application/services"
)

// ArgumentViolations checks model-produced tool arguments against the ranges
// the tool schemas declare. A violation means the arguments parsed but would
// be rejected or misbehave at dispatch time: out-of-range coordinates, an
// unparseable date, an empty query.
func ArgumentViolations(tool string, rawArgs string) []string {
	var violations []string

	switch services.ToolKind(tool) {
	case services.ToolDownloadRadar, services.ToolDownloadOptical:
		var args services.DownloadArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return []string{fmt.Sprintf("arguments do not parse: %v", err)}
		}
		if args.Lat < -90 || args.Lat > 90 {
			violations = append(violations, fmt.Sprintf("latitude %g out of range", args.Lat))
		}
		if args.Lon < -180 || args.Lon > 180 {
			violations = append(violations, fmt.Sprintf("longitude %g out of range", args.Lon))
		}
		if _, err := time.Parse("2006-01-02", args.DateStr); err != nil {
			violations = append(violations, fmt.Sprintf("date %q is not YYYY-MM-DD", args.DateStr))
		}

	case services.ToolGeocodeLocation:
		var args services.GeocodeArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return []string{fmt.Sprintf("arguments do not parse: %v", err)}
		}
		if strings.TrimSpace(args.LocationQuery) == "" {
			violations = append(violations, "location query is empty")
		}

	case services.ToolSearchSceneArchive:
		var args services.ArchiveSearchArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return []string{fmt.Sprintf("arguments do not parse: %v", err)}
		}
		if strings.TrimSpace(args.Query) == "" {
			violations = append(violations, "search query is empty")
		}
		if args.Collection != "" && args.Collection != "radar" && args.Collection != "optical" {
			violations = append(violations, fmt.Sprintf("collection %q is not radar or optical", args.Collection))
		}
	}

	return violations
}
