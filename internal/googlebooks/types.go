package googlebooks

// VolumesResponse matches the consumed subset of the /volumes payload.
// Every field is optional; absent values decode to their zero value or nil.
type VolumesResponse struct {
	TotalItems int       `json:"totalItems"`
	Items      []*Volume `json:"items"`
}

// Volume is a single search hit.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the bibliographic metadata of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	Categories          []string             `json:"categories"`
	PageCount           *int                 `json:"pageCount"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	Language            string               `json:"language"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
}

// IndustryIdentifier is a (type, identifier) pair such as ("ISBN_13", "9780441172719").
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks offers cover URLs in several sizes.
type ImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// Request describes one volumes call.
type Request struct {
	Query      string
	MaxResults int
	// StartIndex is zero-based; zero is omitted from the request.
	StartIndex int
}
