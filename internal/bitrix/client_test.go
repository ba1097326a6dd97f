package bitrix

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListActivitiesRequestShape(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm.activity.list" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("request body: %v", err)
		}
		fmt.Fprint(w, `{"result":[{"ID":"101","DIRECTION":"1","RESPONSIBLE_ID":"7","FILES":[{"id":123}]}]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL + "/")
	acts, err := c.ListActivities(ActivityQuery{
		Start:          50,
		DateFrom:       "2024-01-09 21:00:00",
		DateTo:         "2024-01-10 20:59:59",
		ResponsibleIDs: []string{"7"},
		Direction:      "1",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(acts) != 1 || acts[0].ID != "101" {
		t.Fatalf("activities = %+v", acts)
	}
	if acts[0].Files[0].ID.String() != "123" {
		t.Fatalf("file id = %q", acts[0].Files[0].ID.String())
	}

	if captured["start"] != float64(50) {
		t.Fatalf("start = %v", captured["start"])
	}
	filter := captured["filter"].(map[string]interface{})
	if filter["TYPE_ID"] != "2" {
		t.Fatalf("type filter = %v", filter["TYPE_ID"])
	}
	if filter[">=START_TIME"] != "2024-01-09 21:00:00" || filter["<=START_TIME"] != "2024-01-10 20:59:59" {
		t.Fatalf("time filter = %v", filter)
	}
	if filter["DIRECTION"] != "1" {
		t.Fatalf("direction = %v", filter["DIRECTION"])
	}
	sel := captured["select"].([]interface{})
	found := false
	for _, f := range sel {
		if f == "FILES" {
			found = true
		}
	}
	if !found {
		t.Fatalf("select misses FILES: %v", sel)
	}
}

func TestListActivitiesOmitsEmptyFilters(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"result":[]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	if _, err := c.ListActivities(ActivityQuery{DateFrom: "a", DateTo: "b"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	filter := captured["filter"].(map[string]interface{})
	if _, ok := filter["DIRECTION"]; ok {
		t.Fatal("empty direction must not be sent")
	}
	if _, ok := filter["RESPONSIBLE_ID"]; ok {
		t.Fatal("empty responsible list must not be sent")
	}
}

func TestFetchManagers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user.get" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"result":[{"ID":"7","NAME":"Anna","LAST_NAME":"Petrova"},{"ID":"8","NAME":"Boris","LAST_NAME":""}]}`)
	}))
	t.Cleanup(srv.Close)

	m := NewClient(srv.URL).FetchManagers()
	if m["7"] != "Anna Petrova" {
		t.Fatalf(`m["7"] = %q`, m["7"])
	}
	if m["8"] != "Boris" {
		t.Fatalf(`m["8"] = %q`, m["8"])
	}
}

func TestFetchManagersFailureYieldsEmptyDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	m := NewClient(srv.URL).FetchManagers()
	if len(m) != 0 {
		t.Fatalf("directory = %v, want empty", m)
	}
}

func TestFileDownloadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/disk.file.get" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "55" {
			t.Errorf("id = %q", r.URL.Query().Get("id"))
		}
		fmt.Fprint(w, `{"result":{"DOWNLOAD_URL":"https://portal/download/55"}}`)
	}))
	t.Cleanup(srv.Close)

	u, err := NewClient(srv.URL).FileDownloadURL("55")
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if u != "https://portal/download/55" {
		t.Fatalf("url = %q", u)
	}
}

func TestFileDownloadURLMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{}}`)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewClient(srv.URL).FileDownloadURL("55"); err == nil {
		t.Fatal("expected error for missing download url")
	}
}

func TestDownloadAudioContentTypeGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rec.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			fmt.Fprint(w, "ID3-payload")
		case "/expired":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>link expired</html>")
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	audio, err := c.DownloadAudio(srv.URL + "/rec.mp3")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(audio) != "ID3-payload" {
		t.Fatalf("audio = %q", audio)
	}

	audio, err = c.DownloadAudio(srv.URL + "/expired")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if audio != nil {
		t.Fatalf("non-audio payload accepted: %q", audio)
	}
}

func TestVoximplantStatisticsFilter(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voximplant.statistic.get" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"result":[{"RECORD_FILE_ID":"77","CALL_DURATION":42}]}`)
	}))
	t.Cleanup(srv.Close)

	from := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 11, 12, 0, 0, 0, time.UTC)
	recs, err := NewClient(srv.URL).VoximplantStatistics(from, to, "104")
	if err != nil {
		t.Fatalf("vox: %v", err)
	}
	if len(recs) != 1 || recs[0].RecordFileID.String() != "77" || recs[0].CallDuration.String() != "42" {
		t.Fatalf("records = %+v", recs)
	}
	if captured["filter[>CALL_START_DATE]"] != "2024-05-09 12:00:00" {
		t.Fatalf("start filter = %v", captured["filter[>CALL_START_DATE]"])
	}
	if captured["filter[<CALL_END_DATE]"] != "2024-05-11 12:00:00" {
		t.Fatalf("end filter = %v", captured["filter[<CALL_END_DATE]"])
	}
	if captured["filter[CRM_ACTIVITY_ID]"] != "104" {
		t.Fatalf("activity filter = %v", captured["filter[CRM_ACTIVITY_ID]"])
	}
}

func TestEntityLink(t *testing.T) {
	webhook := "https://acme.bitrix24.ru/rest/1/secret"
	cases := []struct {
		typeID string
		want   string
	}{
		{"1", "https://acme.bitrix24.ru/crm/lead/details/900/"},
		{"2", "https://acme.bitrix24.ru/crm/deal/details/900/"},
		{"3", "https://acme.bitrix24.ru/crm/contact/details/900/"},
		{"9", "no linked entity"},
	}
	for _, tc := range cases {
		if got := EntityLink(webhook, tc.typeID, "900"); got != tc.want {
			t.Fatalf("EntityLink type %s = %q, want %q", tc.typeID, got, tc.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	cases := []string{
		"2024-01-10T12:30:00+03:00",
		"2024-01-10T12:30:00",
		"2024-01-10 12:30:00",
		"2024-01-10",
	}
	for _, in := range cases {
		if _, err := ParseTime(in); err != nil {
			t.Fatalf("ParseTime(%q): %v", in, err)
		}
	}
	if _, err := ParseTime("next tuesday"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
