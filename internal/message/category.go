package message

type Category string

const (
	CategoryQuote      Category = "Favorite Mark Quote"
	CategoryMemory     Category = "Favorite Memory"
	CategoryEscalation Category = "Best Escalation Story"
	CategoryLeadership Category = "Leadership Lesson"
	CategoryJoke       Category = "Inside Joke"
	CategoryWishes     Category = "Well Wishes"
	CategoryCustom     Category = "Custom Shoutout"
)

// Categories in display order.
var Categories = []Category{
	CategoryQuote,
	CategoryMemory,
	CategoryEscalation,
	CategoryLeadership,
	CategoryJoke,
	CategoryWishes,
	CategoryCustom,
}

var categoryColors = map[Category]string{
	CategoryQuote:      "#FEF3C7",
	CategoryMemory:     "#DBEAFE",
	CategoryEscalation: "#FEE2E2",
	CategoryLeadership: "#D1FAE5",
	CategoryJoke:       "#F3E8FF",
	CategoryWishes:     "#FFEDD5",
	CategoryCustom:     "#E0F2FE",
}

func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// ColorFor returns the card background for a category, or "" if unknown.
func ColorFor(c Category) string {
	return categoryColors[c]
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	return t == MediaImage || t == MediaVideo
}

// MediaTypeOf classifies a MIME type. Anything that is not video is an image.
func MediaTypeOf(contentType string) MediaType {
	if len(contentType) >= 5 && contentType[:5] == "video" {
		return MediaVideo
	}
	return MediaImage
}

var Principles = []string{
	"Customer Obsession",
	"Ownership",
	"Invent and Simplify",
	"Are Right, A Lot",
	"Learn and Be Curious",
	"Hire and Develop the Best",
	"Insist on the Highest Standards",
	"Think Big",
	"Bias for Action",
	"Frugality",
	"Earn Trust",
	"Dive Deep",
	"Have Backbone; Disagree and Commit",
	"Deliver Results",
	"Strive to be Earth's Best Employer",
	"Success and Scale Bring Broad Responsibility",
}

func validPrinciple(p string) bool {
	for _, v := range Principles {
		if v == p {
			return true
		}
	}
	return false
}
