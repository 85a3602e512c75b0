package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ajitpratap0/lazperf/pkg/lazperf"
)

// parseSchema builds a record schema from a comma separated item list such
// as "point,gpstime,rgb,extra=4". Items keep their listed order.
func parseSchema(list string) (*lazperf.RecordSchema, error) {
	schema := lazperf.NewRecordSchema()
	for _, raw := range strings.Split(list, ",") {
		name, arg, hasArg := strings.Cut(strings.TrimSpace(raw), "=")
		name = strings.ToLower(name)
		if hasArg && name != "extra" && name != "extrabytes" {
			return nil, fmt.Errorf("schema item %q takes no argument", name)
		}
		switch name {
		case "point", "point10":
			schema.PushPoint()
		case "gpstime", "gps", "gpstime11":
			schema.PushGpsTime()
		case "rgb", "rgb12":
			schema.PushRgb()
		case "extra", "extrabytes":
			if !hasArg {
				return nil, fmt.Errorf("schema item %q needs a byte count, e.g. extra=4", raw)
			}
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid extra byte count %q: %w", arg, err)
			}
			schema.PushExtraBytes(n)
		case "":
			return nil, fmt.Errorf("empty schema item in %q", list)
		default:
			return nil, fmt.Errorf("unknown schema item %q", name)
		}
	}
	if err := schema.Err(); err != nil {
		return nil, err
	}
	if schema.SizeInBytes() == 0 {
		return nil, fmt.Errorf("schema %q describes an empty record", list)
	}
	return schema, nil
}
