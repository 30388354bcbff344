package post

// Video is an entry of the video gallery.
type Video struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Category  string `json:"category,omitempty"`
	Duration  string `json:"duration,omitempty"`
}
