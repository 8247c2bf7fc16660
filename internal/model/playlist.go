package model

// Playlist groups slides for rotation. RepeatCount below 1 is treated as 1.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slides      []Slide `json:"slides"`
	IsEnabled   bool    `json:"isEnabled"`
	RepeatCount int     `json:"repeatCount"`
}

// EffectiveRepeatCount clamps RepeatCount to at least 1.
func (p Playlist) EffectiveRepeatCount() int {
	if p.RepeatCount < 1 {
		return 1
	}
	return p.RepeatCount
}

// TotalDuration is the sum of visible slides' effective durations in
// seconds, for a single pass. Invisible slides contribute nothing. It is
// recomputed on demand rather than stored.
func (p Playlist) TotalDuration() int {
	total := 0
	for _, s := range p.Slides {
		if !s.IsVisible {
			continue
		}
		total += s.EffectiveDuration()
	}
	return total
}

// ImageURLs lists the image URLs owned by this playlist's slides, used to
// cascade blob deletion when the playlist is removed.
func (p Playlist) ImageURLs() []string {
	var urls []string
	for _, s := range p.Slides {
		if s.ImageURL != "" {
			urls = append(urls, s.ImageURL)
		}
	}
	return urls
}

// ContentDoc is the display-content document: every playlist in stored
// order. Playback order follows the slice order.
type ContentDoc struct {
	Playlists []Playlist `json:"playlists"`
}
