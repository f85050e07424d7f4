package utils

import (
	"net/url"
	"strings"
)

var linkvertiseHosts = []string{"linkvertise.com", "direct-link.net", "link-to.net", "link-center.net", "link-target.net"}

// IsLinkvertiseURL reports whether raw already points at a Linkvertise domain
func IsLinkvertiseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range linkvertiseHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// WrapLinkvertise builds a dynamic Linkvertise link for target, unless it is already one
func WrapLinkvertise(target, publisherID string) string {
	if publisherID == "" || IsLinkvertiseURL(target) {
		return target
	}
	return "https://direct-link.net/" + url.PathEscape(publisherID) + "/dynamic?r=" + url.QueryEscape(target)
}
