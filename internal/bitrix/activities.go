package bitrix

import (
	"strings"

	"call-harvester-go/internal/types"
)

// PageSize is the fixed page size of crm.activity.list. A response with fewer
// records marks the last page.
const PageSize = 50

// activitySelect lists every field the resolution chain and CallRecord
// construction need. Keep in sync with types.ActivityRecord.
var activitySelect = []string{
	"ID", "OWNER_ID", "OWNER_TYPE_ID", "TYPE_ID", "PROVIDER_ID", "SUBJECT",
	"START_TIME", "END_TIME", "DIRECTION", "RESPONSIBLE_ID",
	"STORAGE_TYPE_ID", "STORAGE_ELEMENT_IDS", "PROVIDER_DATA", "FILES",
}

// ActivityQuery describes one page request against crm.activity.list.
type ActivityQuery struct {
	Start          int
	DateFrom       string // UTC, "2006-01-02 15:04:05"
	DateTo         string
	ResponsibleIDs []string
	Direction      string // "" | "1" incoming | "2" outgoing
}

type activityListResponse struct {
	Result []types.ActivityRecord `json:"result"`
}

// ListActivities fetches one page of call activities.
func (c *Client) ListActivities(q ActivityQuery) ([]types.ActivityRecord, error) {
	filter := map[string]interface{}{
		">=START_TIME": q.DateFrom,
		"<=START_TIME": q.DateTo,
		"TYPE_ID":      "2",
	}
	if len(q.ResponsibleIDs) > 0 {
		filter["RESPONSIBLE_ID"] = q.ResponsibleIDs
	}
	if q.Direction != "" {
		filter["DIRECTION"] = q.Direction
	}
	params := map[string]interface{}{
		"start":  q.Start,
		"filter": filter,
		"select": activitySelect,
	}
	var resp activityListResponse
	if err := c.postJSON("crm.activity.list", params, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

type userListResponse struct {
	Result []struct {
		ID       string `json:"ID"`
		Name     string `json:"NAME"`
		LastName string `json:"LAST_NAME"`
	} `json:"result"`
}

// FetchManagers builds the responsible-id to display-name directory from the
// portal's active users. Any failure yields an empty directory; the caller
// falls back to a placeholder name per call.
func (c *Client) FetchManagers() types.ManagerDirectory {
	managers := types.ManagerDirectory{}
	var resp userListResponse
	err := c.postJSON("user.get", map[string]interface{}{"filter[ACTIVE]": "true"}, &resp)
	if err != nil {
		c.log.WithError(err).Error("fetch managers failed")
		return managers
	}
	for _, u := range resp.Result {
		managers[u.ID] = strings.TrimSpace(u.Name + " " + u.LastName)
	}
	return managers
}
