package aidetect

import (
	"net/url"
	"strings"
)

// stockDomains are stock photo hosts. Their previews carry watermarks and
// licensing terms that make them unusable as demo samples.
var stockDomains = []string{
	"shutterstock",
	"gettyimages",
	"istockphoto",
	"adobestock",
	"depositphotos",
	"dreamstime",
	"123rf",
	"alamy",
	"bigstockphoto",
	"stocksy",
	"pond5",
	"thinkstockphotos",
	"canstockphoto",
	"masterfile",
	"superstock",
	"agefotostock",
	"colourbox",
	"vectorstock",
	"freepik",
}

// stockPathPatterns are URL path segments of stock photo pages.
var stockPathPatterns = []string{
	"/stock-photo",
	"/stock-image",
	"/editorial-image",
	"/premium-photo",
}

// IsStockImage reports whether either the image URL or the page it was found
// on belongs to a stock photo site. A CDN-hosted image can still originate
// from a stock page, so both are checked.
func IsStockImage(imageURL, pageURL string) bool {
	return isStockURL(imageURL) || isStockURL(pageURL)
}

func isStockURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	for _, d := range stockDomains {
		if strings.Contains(host, d) {
			return true
		}
	}
	path := strings.ToLower(parsed.Path)
	for _, p := range stockPathPatterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
