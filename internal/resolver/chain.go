package resolver

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"call-harvester-go/internal/bitrix"
	"call-harvester-go/internal/logger"
	"call-harvester-go/internal/types"
)

// RecordingAPI is the slice of the CRM client the chain needs.
type RecordingAPI interface {
	FileDownloadURL(fileID string) (string, error)
	DownloadAudio(downloadURL string) ([]byte, error)
	VoximplantStatistics(from, to time.Time, activityID string) ([]bitrix.VoxRecord, error)
}

// Resolution is the outcome of running the chain for one activity. Audio is
// nil when unresolved; Duration carries the call-log duration when the
// telephony fallback produced the audio.
type Resolution struct {
	Audio    []byte
	Source   string
	Duration json.Number
	Reason   string
}

func (r Resolution) Resolved() bool { return len(r.Audio) > 0 }

// Strategy attempts to locate audio for an activity. Returning an unresolved
// Resolution with a nil error means "not found here, try the next one".
type Strategy func(act types.ActivityRecord) (Resolution, error)

// Chain probes recording sources in order and stops at the first hit. Two
// independent storage systems hold recordings (a file link on the activity and
// the telephony call log keyed by activity id); neither is authoritative.
type Chain struct {
	api        RecordingAPI
	strategies []Strategy
	log        *logrus.Entry
}

func NewChain(api RecordingAPI) *Chain {
	c := &Chain{
		api: api,
		log: logger.New().WithField("module", "resolver"),
	}
	c.strategies = []Strategy{c.fromAttachedFile, c.fromCallLog}
	return c
}

// Resolve runs the strategies left to right. Every network failure inside a
// strategy is logged and converted to unresolved so it never reaches sibling
// activities.
func (c *Chain) Resolve(act types.ActivityRecord) Resolution {
	log := c.log.WithField("call_id", act.ID)
	for _, s := range c.strategies {
		res, err := s(act)
		if err != nil {
			log.WithError(err).Error("resolution strategy failed")
			continue
		}
		if res.Resolved() {
			log.WithFields(logrus.Fields{
				"source":     res.Source,
				"audio_size": len(res.Audio),
			}).Info("audio resolved")
			return res
		}
	}
	if act.StartTime != "" {
		log.Error("no audio recording found for activity")
		return Resolution{Reason: "no audio found"}
	}
	// no file reference and no timestamp to correlate on; nothing to report
	log.Debug("activity has no usable audio reference")
	return Resolution{Reason: "unknown"}
}

// fromAttachedFile uses the file reference carried on the activity itself:
// the first FILES entry, or the first storage element when the legacy storage
// type marks a disk upload.
func (c *Chain) fromAttachedFile(act types.ActivityRecord) (Resolution, error) {
	fileID := ""
	if len(act.Files) > 0 {
		fileID = act.Files[0].ID.String()
	} else if act.StorageTypeID == "2" && len(act.StorageElementIDs) > 0 {
		fileID = act.StorageElementIDs[0]
	}
	if fileID == "" {
		return Resolution{}, nil
	}
	audio, err := c.fetchAudio(fileID)
	if err != nil {
		return Resolution{}, err
	}
	if audio == nil {
		return Resolution{}, nil
	}
	return Resolution{Audio: audio, Source: "file"}, nil
}

// fromCallLog correlates the activity against the telephony statistics within
// a one-day window either side of the call start.
func (c *Chain) fromCallLog(act types.ActivityRecord) (Resolution, error) {
	if act.StartTime == "" {
		return Resolution{}, nil
	}
	start, err := bitrix.ParseTime(act.StartTime)
	if err != nil {
		return Resolution{}, err
	}
	// the call log stores portal-local wall-clock times; drop the zone
	naive := time.Date(start.Year(), start.Month(), start.Day(),
		start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
	records, err := c.api.VoximplantStatistics(naive.AddDate(0, 0, -1), naive.AddDate(0, 0, 1), act.ID)
	if err != nil {
		return Resolution{}, err
	}
	for _, rec := range records {
		fileID := rec.RecordFileID.String()
		if fileID == "" || fileID == "0" {
			continue
		}
		audio, err := c.fetchAudio(fileID)
		if err != nil {
			c.log.WithField("call_id", act.ID).WithError(err).Warn("call-log record fetch failed")
			continue
		}
		if audio != nil {
			return Resolution{Audio: audio, Source: "voximplant", Duration: rec.CallDuration}, nil
		}
	}
	return Resolution{}, nil
}

// fetchAudio performs the file-metadata, download-URL, content-type-gated
// fetch shared by both strategies. nil audio with nil error means the payload
// was rejected by the content-type gate.
func (c *Chain) fetchAudio(fileID string) ([]byte, error) {
	downloadURL, err := c.api.FileDownloadURL(fileID)
	if err != nil {
		return nil, err
	}
	return c.api.DownloadAudio(downloadURL)
}
