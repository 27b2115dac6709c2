package locator

// Host page selectors. The host markup is not a contract and changes by surface
// (home feed, related rail, search results) and over time. Update these when
// discovery starts falling through to the generic strategies.
const (
	CompactRenderer = `ytd-compact-video-renderer`
	RichItem        = `ytd-rich-item-renderer`
	VideoRenderer   = `ytd-video-renderer`
	MetaBlock       = `ytd-video-meta-block`

	ThumbnailImage     = `img[src*="ytimg.com"]`
	ChannelAvatarImage = `img[src*="ggpht.com"]`

	WatchLink = `a[href*="/watch?v="]`
)

// WatchPattern is the substring identifying a video destination URL.
const WatchPattern = "/watch?v="

// MaxAncestorClimb bounds the search for a thumbnail's linking ancestor.
const MaxAncestorClimb = 5

// Containers is the union of the known item container patterns.
const Containers = CompactRenderer + ", " + RichItem + ", " + VideoRenderer
