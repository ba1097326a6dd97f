package bitrix

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

type diskFileResponse struct {
	Result struct {
		DownloadURL string `json:"DOWNLOAD_URL"`
	} `json:"result"`
}

// FileDownloadURL resolves a disk file id to its download URL.
func (c *Client) FileDownloadURL(fileID string) (string, error) {
	params := url.Values{}
	params.Set("id", fileID)
	var resp diskFileResponse
	if err := c.getJSON("disk.file.get", params, &resp); err != nil {
		return "", err
	}
	if resp.Result.DownloadURL == "" {
		return "", fmt.Errorf("file %s has no download url", fileID)
	}
	return resp.Result.DownloadURL, nil
}

// DownloadAudio fetches a download URL and returns the payload only when the
// response declares an audio content type. A non-audio payload (usually an
// HTML error page behind an expired link) returns nil without error.
func (c *Client) DownloadAudio(downloadURL string) ([]byte, error) {
	resp, err := httpClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		c.log.WithField("content_type", contentType).Debug("skipping non-audio payload")
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}
