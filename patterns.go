package aidetect

import "strings"

// nonPhotoPatterns are URL substrings of site chrome rather than photographs.
var nonPhotoPatterns = []string{
	"favicon", "logo", "icon", "banner", "sprite",
	"badge", "button", "widget", "avatar",
}

// isNonPhotoURL reports whether rawURL looks like a logo, banner or similar asset.
func isNonPhotoURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range nonPhotoPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
