package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes an anti-bot interstitial served instead of the page.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockDenied     BlockType = "access_denied"
)

// challengeMarkers appear on interstitials rather than on real pages.
var challengeMarkers = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// DetectBlock inspects a fetched page for signs of anti-bot protection.
func DetectBlock(status int, header http.Header, body string) BlockType {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if header.Get("cf-ray") != "" || header.Get("cf-cache-status") != "" ||
			strings.EqualFold(header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	lower := strings.ToLower(body)

	if strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return BlockCloudflare
	}
	if strings.Contains(lower, "captcha") {
		return BlockCaptcha
	}
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return BlockJSShell
		}
		if status == http.StatusForbidden && strings.Contains(lower, "access denied") {
			return BlockDenied
		}
	}
	return BlockNone
}

// looksLikeChallenge reports whether extracted page text is a short
// interstitial rather than page content.
func looksLikeChallenge(text string) bool {
	if len(text) >= 1000 {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
