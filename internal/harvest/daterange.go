package harvest

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	queryLayout = "2006-01-02 15:04:05"
)

// BitrixDateRange converts a local-date range into the UTC window the CRM is
// queried with: both ends shift back by the tenant's offset and the upper end
// advances to end of day.
func BitrixDateRange(dateFrom, dateTo string, tzOffsetHours int) (string, string, error) {
	from, err := time.Parse(dateLayout, dateFrom)
	if err != nil {
		return "", "", fmt.Errorf("date_from: %w", err)
	}
	to, err := time.Parse(dateLayout, dateTo)
	if err != nil {
		return "", "", fmt.Errorf("date_to: %w", err)
	}
	offset := time.Duration(tzOffsetHours) * time.Hour
	fromUTC := from.Add(-offset)
	toUTC := to.Add(-offset).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return fromUTC.Format(queryLayout), toUTC.Format(queryLayout), nil
}
