package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/scholartrend/internal/trend"
)

// Detector examines a fetched page to determine if an anti-automation
// mechanism answered instead of the provider.
type Detector func(page *trend.Page) (detected bool, source string)

// DefaultDetectors returns the detectors used when classifying pages.
// Google's own throttling markers come first since they are the common case.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogle,
		detectTooManyRequests,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the page through the detectors and returns the source of
// the first match, or "" when none triggered.
func Analyze(page *trend.Page, detectors []Detector) (bool, string) {
	if page == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(page); detected {
			return true, source
		}
	}
	return false, ""
}

func getHeader(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	lowerKey := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

var googleMarkers = [][]byte{
	[]byte("unusual traffic"),
	[]byte("/sorry/index"),
	[]byte("gs_captcha_ccl"),
	[]byte("gs_captcha_f"),
	[]byte("please show you're not a robot"),
}

// detectGoogle looks for the "unusual traffic" interstitial and the Scholar
// captcha form. These can arrive with any status, including 200.
func detectGoogle(page *trend.Page) (bool, string) {
	lower := bytes.ToLower(page.Body)
	for _, m := range googleMarkers {
		if bytes.Contains(lower, m) {
			return true, "Google"
		}
	}
	return false, ""
}

func detectTooManyRequests(page *trend.Page) (bool, string) {
	if page.StatusCode == http.StatusTooManyRequests {
		return true, "HTTP 429"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(page *trend.Page) (bool, string) {
	if page.StatusCode != http.StatusForbidden && page.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(getHeader(page.Headers, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(page.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(page.Body, []byte("cf-turnstile")) ||
		bytes.Contains(page.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(page *trend.Page) (bool, string) {
	if page.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(getHeader(page.Headers, "Server")), "akamai") {
		return true, "Akamai"
	}
	if bytes.Contains(page.Body, []byte("Reference #")) && bytes.Contains(page.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(page *trend.Page) (bool, string) {
	if page.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if getHeader(page.Headers, "X-DataDome") != "" || bytes.Contains(page.Body, []byte("geo.captcha-delivery.com")) {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(page *trend.Page) (bool, string) {
	if page.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if getHeader(page.Headers, "X-Px-Captcha") != "" ||
		bytes.Contains(page.Body, []byte("px-captcha")) ||
		bytes.Contains(page.Body, []byte("_pxBlock")) {
		return true, "PerimeterX"
	}
	return false, ""
}
