package harvest

import (
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"

	"call-harvester-go/internal/bitrix"
)

// ResolveDuration returns the call duration in seconds. A duration reported
// by the call log wins; otherwise it is computed from the activity's start and
// end timestamps, clamped to zero. Anything unparsable becomes zero.
func ResolveDuration(reported json.Number, startTime, endTime string, log *logrus.Entry) int {
	if reported != "" {
		if n, err := strconv.Atoi(reported.String()); err == nil {
			return n
		}
		if f, err := reported.Float64(); err == nil {
			return int(f)
		}
		log.WithField("reported", reported.String()).Error("unparsable call duration, using 0")
		return 0
	}
	start, err := bitrix.ParseTime(startTime)
	if err != nil {
		log.WithError(err).Error("duration fallback: bad start time, using 0")
		return 0
	}
	end, err := bitrix.ParseTime(endTime)
	if err != nil {
		log.WithError(err).Error("duration fallback: bad end time, using 0")
		return 0
	}
	d := int(end.Sub(start).Seconds())
	if d < 0 {
		d = 0
	}
	return d
}

// DurationFilter rejects calls outside the configured bounds. Nil bounds are
// open; both bounds are inclusive.
type DurationFilter struct {
	Min *int
	Max *int
}

func (f DurationFilter) Accept(d int) bool {
	if f.Min != nil && d < *f.Min {
		return false
	}
	if f.Max != nil && d > *f.Max {
		return false
	}
	return true
}
