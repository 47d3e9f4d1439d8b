package spotify

// Profile is the authenticated user's Spotify account.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"`
	Country     string `json:"country"`
}

// Artist is the subset of artist data the dashboard renders.
type Artist struct {
	Name string `json:"name"`
}

// Album carries the album name and cover art.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Image is a cover art variant.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Track is the currently playing item.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
}

// Playback is the current playback state. A nil *Playback means nothing
// is playing.
type Playback struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int    `json:"progress_ms"`
	Item       *Track `json:"item"`
	Device     Device `json:"device"`
}

// Device is a Spotify Connect playback target.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

type devicesResponse struct {
	Devices []Device `json:"devices"`
}
