package climate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Candidate names, in order of preference, for the variables and axes the
// CDS products use across ERA5 and SEAS5 downloads.
var (
	precipNames   = []string{"tp", "tprate", "total_precipitation"}
	timeNames     = []string{"time", "valid_time"}
	latNames      = []string{"latitude", "lat"}
	lonNames      = []string{"longitude", "lon"}
	ensembleNames = []string{"number", "member", "ensemble"}
)

// timeUnitsRe matches CF time units such as "hours since 1900-01-01 00:00:00.0".
var timeUnitsRe = regexp.MustCompile(`^\s*(\w+)\s+since\s+(\d{4}-\d{1,2}-\d{1,2})(?:[ T](\d{1,2}:\d{2}(?::\d{2})?)(?:\.\d+)?)?`)

// ReadPrecipitation reads a precipitation grid and averages it over the grid
// cells inside area (every cell when area is zero). Values are returned in
// millimetres, one series per ensemble member.
func ReadPrecipitation(path string, area domain.Area) (*Series, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	varName, precip, err := firstVariable(nc, precipNames)
	if err != nil {
		return nil, err
	}
	data, shape, err := flatten(precip.Values)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", varName, err)
	}
	if len(shape) != len(precip.Dimensions) {
		return nil, fmt.Errorf("%s: %d dimensions but %d-d values: %w",
			varName, len(precip.Dimensions), len(shape), domain.ErrInvalidInput)
	}
	unpack(data, precip.Attributes)

	axes, err := locateAxes(varName, precip.Dimensions, shape)
	if err != nil {
		return nil, err
	}

	times, err := readTimes(nc, precip.Dimensions[axes.time])
	if err != nil {
		return nil, err
	}
	if len(times) != shape[axes.time] {
		return nil, fmt.Errorf("%s: %d time values for axis of %d: %w",
			varName, len(times), shape[axes.time], domain.ErrInvalidInput)
	}
	lats, err := readCoord(nc, precip.Dimensions[axes.lat])
	if err != nil {
		return nil, err
	}
	lons, err := readCoord(nc, precip.Dimensions[axes.lon])
	if err != nil {
		return nil, err
	}

	cells := selectCells(lats, lons, area)
	if len(cells) == 0 {
		return nil, fmt.Errorf("%s: area %s selects no grid cells: %w", varName, area, domain.ErrInvalidInput)
	}

	factor := 1000.0
	if u, ok := attrString(precip.Attributes, "units"); ok && strings.HasPrefix(strings.TrimSpace(u), "mm") {
		factor = 1
	}

	members := 1
	if axes.ensemble >= 0 {
		members = shape[axes.ensemble]
	}
	strides := make([]int, len(shape))
	stride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}

	s := &Series{Variable: varName, Times: times, Members: make([][]float64, members)}
	for m := 0; m < members; m++ {
		s.Members[m] = make([]float64, len(times))
		for t := range times {
			base := t * strides[axes.time]
			if axes.ensemble >= 0 {
				base += m * strides[axes.ensemble]
			}
			sum, n := 0.0, 0
			for _, c := range cells {
				v := data[base+c[0]*strides[axes.lat]+c[1]*strides[axes.lon]]
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
			}
			if n == 0 {
				s.Members[m][t] = math.NaN()
				continue
			}
			s.Members[m][t] = sum / float64(n) * factor
		}
	}
	return s, nil
}

type axes struct {
	time, lat, lon, ensemble int
}

func locateAxes(varName string, dims []string, shape []int) (axes, error) {
	a := axes{time: -1, lat: -1, lon: -1, ensemble: -1}
	for i, d := range dims {
		switch {
		case contains(timeNames, d):
			a.time = i
		case contains(latNames, d):
			a.lat = i
		case contains(lonNames, d):
			a.lon = i
		case contains(ensembleNames, d):
			a.ensemble = i
		case shape[i] != 1:
			return a, fmt.Errorf("%s: unsupported dimension %q of length %d: %w",
				varName, d, shape[i], domain.ErrInvalidInput)
		}
	}
	if a.time < 0 || a.lat < 0 || a.lon < 0 {
		return a, fmt.Errorf("%s: need time, latitude and longitude dimensions, have %v: %w",
			varName, dims, domain.ErrInvalidInput)
	}
	return a, nil
}

// selectCells returns the (lat, lon) index pairs inside area.
func selectCells(lats, lons []float64, area domain.Area) [][2]int {
	var cells [][2]int
	for i, la := range lats {
		for j, lo := range lons {
			if area.IsZero() || area.Contains(la, lo) {
				cells = append(cells, [2]int{i, j})
			}
		}
	}
	return cells
}

// unpack applies _FillValue/missing_value masking and CF scale_factor/add_offset in place.
func unpack(data []float64, attrs api.AttributeMap) {
	var fills []float64
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(attrs, key); ok {
			fills = append(fills, v)
		}
	}
	scale, hasScale := attrFloat(attrs, "scale_factor")
	if !hasScale {
		scale = 1
	}
	offset, _ := attrFloat(attrs, "add_offset")

	for i, v := range data {
		for _, f := range fills {
			if v == f {
				v = math.NaN()
				break
			}
		}
		data[i] = v*scale + offset
	}
}

func firstVariable(nc api.Group, names []string) (string, *api.Variable, error) {
	for _, name := range names {
		v, err := nc.GetVariable(name)
		if err == nil && v != nil {
			return name, v, nil
		}
	}
	return "", nil, fmt.Errorf("none of %v found: %w", names, domain.ErrInvalidInput)
}

func readCoord(nc api.Group, name string) ([]float64, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("coordinate %s: %w", name, err)
	}
	vals, _, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("coordinate %s: %w", name, err)
	}
	return vals, nil
}

func readTimes(nc api.Group, name string) ([]time.Time, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("time coordinate %s: %w", name, err)
	}
	raw, _, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("time coordinate %s: %w", name, err)
	}
	units, _ := attrString(v.Attributes, "units")
	return DecodeTimes(raw, units)
}

// DecodeTimes converts CF "<unit> since <epoch>" offsets to UTC times.
func DecodeTimes(raw []float64, units string) ([]time.Time, error) {
	m := timeUnitsRe.FindStringSubmatch(units)
	if m == nil {
		return nil, fmt.Errorf("time units %q: %w", units, domain.ErrInvalidInput)
	}

	var step time.Duration
	switch strings.ToLower(m[1]) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return nil, fmt.Errorf("time unit %q: %w", m[1], domain.ErrInvalidInput)
	}

	epochText := m[2]
	layout := "2006-1-2"
	if m[3] != "" {
		epochText += " " + m[3]
		layout += " 15:04"
		if strings.Count(m[3], ":") == 2 {
			layout += ":05"
		}
	}
	epoch, err := time.ParseInLocation(layout, epochText, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("time epoch %q: %w", epochText, domain.ErrInvalidInput)
	}

	out := make([]time.Time, len(raw))
	for i, r := range raw {
		out[i] = epoch.Add(time.Duration(r * float64(step)))
	}
	return out, nil
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func attrString(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func contains(names []string, s string) bool {
	for _, n := range names {
		if n == s {
			return true
		}
	}
	return false
}
