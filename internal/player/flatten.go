// Package player is the display-client playback engine: it flattens the
// playlist collection into one slide sequence, drives timed rotation with
// transitions and text pagination, and rotates the RSS ticker on its own
// clock.
package player

import "github.com/Dune-pebbler/izi-casting/internal/model"

// Flatten derives the playback sequence from the playlist collection:
// disabled playlists are dropped, slides are filtered to visible ones with
// renderable content, each playlist is expanded repeatCount times, and
// playlists concatenate in stored order.
//
// Flatten is pure: identical input yields identical output and no slide is
// mutated. An empty result means the caller must show the no-slides state
// instead of rotating.
func Flatten(content model.ContentDoc) []model.Slide {
	var sequence []model.Slide
	for _, playlist := range content.Playlists {
		if !playlist.IsEnabled {
			continue
		}

		var pass []model.Slide
		for _, slide := range playlist.Slides {
			slide.Normalize()
			if !slide.IsVisible || !slide.HasContent() {
				continue
			}
			pass = append(pass, slide)
		}
		if len(pass) == 0 {
			continue
		}

		for i := 0; i < playlist.EffectiveRepeatCount(); i++ {
			sequence = append(sequence, pass...)
		}
	}
	return sequence
}
