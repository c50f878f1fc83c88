package resolver

// RefKind says whether a candidate URL can be fetched as-is.
type RefKind string

const (
	// Direct URLs point at the media bytes.
	Direct RefKind = "direct"
	// Indirect URLs are gif-host permalinks that still need a lookup.
	Indirect RefKind = "indirect"
)

// Source names where in a message a candidate was found.
type Source string

const (
	SourceAttachment Source = "attachment"
	SourceSticker    Source = "sticker"
	SourceEmbed      Source = "embed"
	SourceGifHost    Source = "gifhost"
)

// Candidate is one media reference found in the conversation.
type Candidate struct {
	URL       string
	Kind      RefKind
	Source    Source
	MessageID string
	Spoiler   bool
}
