package feed

import "strings"

// Style groups the three color roles a rendered announcement row uses.
type Style struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}

// Priority buckets. The fallback bucket is intentionally distinct from
// the explicit "low" bucket: an announcement that says priority=low gets
// the green accents, one that says nothing gets the neutral grays.
var (
	styleHigh    = Style{Background: "#FDECEA", Border: "#D32F2F", Text: "#D32F2F"}
	styleMedium  = Style{Background: "#FFF8E1", Border: "#F9A825", Text: "#F9A825"}
	styleLow     = Style{Background: "#E8F5E9", Border: "#388E3C", Text: "#388E3C"}
	styleDefault = Style{Background: "#F5F5F5", Border: "#9E9E9E", Text: "#616161"}
)

var stylesByPriority = map[string]Style{
	"high":   styleHigh,
	"medium": styleMedium,
	"low":    styleLow,
}

// StyleFor maps a priority string to its color roles. The match is
// case-insensitive; anything unrecognized falls through to the neutral
// default bucket.
func StyleFor(priority string) Style {
	if style, ok := stylesByPriority[strings.ToLower(priority)]; ok {
		return style
	}
	return styleDefault
}
