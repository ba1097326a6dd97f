package types

import "encoding/json"

// ActivityRecord is one raw entry from the CRM activity list. Field names
// mirror the Bitrix REST response; the record is never mutated after fetch.
type ActivityRecord struct {
	ID                string         `json:"ID"`
	OwnerID           string         `json:"OWNER_ID"`
	OwnerTypeID       string         `json:"OWNER_TYPE_ID"`
	TypeID            string         `json:"TYPE_ID"`
	ProviderID        string         `json:"PROVIDER_ID"`
	Subject           string         `json:"SUBJECT"`
	StartTime         string         `json:"START_TIME"`
	EndTime           string         `json:"END_TIME"`
	Direction         string         `json:"DIRECTION"`
	ResponsibleID     string         `json:"RESPONSIBLE_ID"`
	StorageTypeID     string         `json:"STORAGE_TYPE_ID"`
	StorageElementIDs []string       `json:"STORAGE_ELEMENT_IDS"`
	Files             []ActivityFile `json:"FILES"`
}

// ActivityFile is an attachment reference on an activity. The API returns the
// id as either a number or a string depending on the portal version.
type ActivityFile struct {
	ID json.Number `json:"id"`
}

// CallRecord is the unit handed to the downstream sink. Built only after audio
// resolution and duration filtering both succeed; the sink owns it afterwards.
type CallRecord struct {
	AudioData    []byte `json:"-"`
	CallID       string `json:"call_id"`
	CallType     string `json:"call_type"`
	CallDuration int    `json:"call_duration"`
	CallDate     string `json:"call_date"`
	CallTime     string `json:"call_time"`
	ManagerName  string `json:"manager_name"`
	EntityLink   string `json:"entity_link"`
}

// ManagerDirectory maps a responsible-party user id to a display name. Built
// once per run, read-only afterwards.
type ManagerDirectory map[string]string

// CallSummary is one row of the end-of-run report.
type CallSummary struct {
	CallID     string `json:"call_id"`
	CallType   string `json:"call_type"`
	Duration   int    `json:"duration"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Manager    string `json:"manager"`
	EntityLink string `json:"entity_link"`
	HandedOff  bool   `json:"handed_off"`
}
