package scrape

import (
	"bytes"
	"net/http"
)

// BlockType describes the kind of anti-bot response detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// smallPage is the size under which captcha, noscript and refresh markers
// count. Full pages often embed a recaptcha widget in their contact form.
const smallPage = 2000

var (
	cloudflareMarkers = [][]byte{[]byte("checking your browser"), []byte("cf-browser-verification")}
	captchaMarkers    = [][]byte{[]byte("captcha")}
)

// DetectBlock reports whether a response looks like an anti-bot interstitial
// instead of the requested page.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" ||
			resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := bytes.ToLower(body)
	if containsAny(lower, cloudflareMarkers) ||
		(bytes.Contains(lower, []byte("cloudflare")) && bytes.Contains(lower, []byte("challenge"))) {
		return true, BlockCloudflare
	}
	if len(body) < smallPage {
		// Matches recaptcha and hcaptcha too.
		if containsAny(lower, captchaMarkers) {
			return true, BlockCaptcha
		}
		if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("javascript")) {
			return true, BlockJSShell
		}
		if bytes.Contains(lower, []byte(`meta http-equiv="refresh"`)) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

func containsAny(haystack []byte, needles [][]byte) bool {
	for _, n := range needles {
		if bytes.Contains(haystack, n) {
			return true
		}
	}
	return false
}
