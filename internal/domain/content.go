package domain

// ContentID identifies one item in the external content catalog.
type ContentID = string

// ContentItem is the catalog metadata for one candidate. Only the id is
// persisted inside room and member lists; metadata stays in the external
// catalog and its cache.
type ContentItem struct {
	ID         ContentID `json:"id"`
	Title      string    `json:"title"`
	PosterLink string    `json:"posterLink,omitempty"`
	Genres     []string  `json:"genres,omitempty"`
	Year       int       `json:"year,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
	Overview   string    `json:"overview,omitempty"`
}
