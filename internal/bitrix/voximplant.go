package bitrix

import (
	"encoding/json"
	"time"
)

// VoxRecord is one call-log entry from voximplant.statistic.get. Numeric
// fields arrive as numbers or strings depending on the portal version.
type VoxRecord struct {
	RecordFileID json.Number `json:"RECORD_FILE_ID"`
	CallDuration json.Number `json:"CALL_DURATION"`
}

type voxResponse struct {
	Result []VoxRecord `json:"result"`
}

const voxTimeLayout = "2006-01-02 15:04:05"

// VoximplantStatistics queries the telephony call log for records linked to
// one CRM activity whose call start falls inside [from, to].
func (c *Client) VoximplantStatistics(from, to time.Time, activityID string) ([]VoxRecord, error) {
	params := map[string]interface{}{
		"filter[>CALL_START_DATE]": from.Format(voxTimeLayout),
		"filter[<CALL_END_DATE]":   to.Format(voxTimeLayout),
		"filter[CRM_ACTIVITY_ID]":  activityID,
	}
	var resp voxResponse
	if err := c.postJSON("voximplant.statistic.get", params, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}
