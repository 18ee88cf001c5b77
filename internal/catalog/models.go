package catalog

type Track struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album,omitempty"`
	DurationSecs int    `json:"durationSecs"`
	CoverURL     string `json:"coverUrl,omitempty"`
	AudioURL     string `json:"audioUrl,omitempty"`
}

type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type TrackSearchResponse struct {
	Items []Track `json:"items"`
}

type ArtistSearchResponse struct {
	Items []Artist `json:"items"`
}
