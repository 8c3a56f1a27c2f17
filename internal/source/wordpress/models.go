package wordpress

// RawPost mirrors a WordPress REST post with `_embed=1`.
type RawPost struct {
	ID       int64        `json:"id"`
	Date     string       `json:"date"`
	Link     string       `json:"link"`
	Title    RenderedText `json:"title"`
	Excerpt  RenderedText `json:"excerpt"`
	Embedded *Embedded    `json:"_embedded"`
}

type RenderedText struct {
	Rendered string `json:"rendered"`
}

// Embedded carries the taxonomy terms WordPress inlines per post. The
// outer slice groups terms by taxonomy (categories first).
type Embedded struct {
	Terms [][]RawTerm `json:"wp:term"`
}

type RawTerm struct {
	Name string `json:"name"`
}
