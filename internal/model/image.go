package model

import (
	"regexp"
	"strings"
)

var (
	drivePathID  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveQueryID = regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`)
)

// DisplayImageURL rewrites Google Drive and Docs share links into a direct
// thumbnail URL that can be embedded. Other URLs are returned trimmed.
func DisplayImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.Contains(u, "drive.google.com") && !strings.Contains(u, "docs.google.com") {
		return u
	}
	m := drivePathID.FindStringSubmatch(u)
	if m == nil {
		m = driveQueryID.FindStringSubmatch(u)
	}
	if m == nil {
		return u
	}
	return "https://drive.google.com/thumbnail?id=" + m[1] + "&sz=s1200"
}
