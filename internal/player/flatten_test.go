package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

func textSlide(id, text string, visible bool) model.Slide {
	return model.Slide{ID: id, Kind: model.SlideText, Text: text, Duration: 5, IsVisible: visible}
}

func TestFlattenFiltersAndExpands(t *testing.T) {
	content := model.ContentDoc{Playlists: []model.Playlist{
		{
			ID:          "p1",
			IsEnabled:   true,
			RepeatCount: 3,
			Slides: []model.Slide{
				textSlide("a", "first", true),
				textSlide("b", "second", true),
				textSlide("c", "hidden", false),
				textSlide("d", "   ", true), // whitespace only, no content
			},
		},
		{
			ID:          "p2",
			IsEnabled:   false,
			RepeatCount: 1,
			Slides:      []model.Slide{textSlide("e", "disabled playlist", true)},
		},
	}}

	sequence := Flatten(content)

	// 2 visible slides with content, repeated 3 times, in order
	require.Len(t, sequence, 6)
	ids := make([]string, 0, len(sequence))
	for _, s := range sequence {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, ids)
}

func TestFlattenIsPure(t *testing.T) {
	content := model.ContentDoc{Playlists: []model.Playlist{
		{
			ID:          "p1",
			IsEnabled:   true,
			RepeatCount: 2,
			Slides: []model.Slide{
				textSlide("a", "hello", true),
				{ID: "img", ImageURL: "https://cdn/img.png", IsVisible: true, Duration: 10},
			},
		},
	}}

	first := Flatten(content)
	second := Flatten(content)
	assert.Equal(t, first, second)

	// input slides are not mutated: the legacy untagged image slide keeps
	// its empty kind in the source document
	assert.Equal(t, model.SlideKind(""), content.Playlists[0].Slides[1].Kind)
	// while the output got a kind assigned
	assert.Equal(t, model.SlideImage, first[1].Kind)
}

func TestFlattenKindFiltering(t *testing.T) {
	cases := []struct {
		name  string
		slide model.Slide
		kept  bool
	}{
		{"text with content", model.Slide{ID: "s", Kind: model.SlideText, Text: "hi", IsVisible: true}, true},
		{"text empty", model.Slide{ID: "s", Kind: model.SlideText, Text: "", IsVisible: true}, false},
		{"image with url", model.Slide{ID: "s", Kind: model.SlideImage, ImageURL: "x", IsVisible: true}, true},
		{"image without url", model.Slide{ID: "s", Kind: model.SlideImage, IsVisible: true}, false},
		{"video with url", model.Slide{ID: "s", Kind: model.SlideVideo, VideoURL: "x", IsVisible: true}, true},
		{"video without url", model.Slide{ID: "s", Kind: model.SlideVideo, IsVisible: true}, false},
		{"legacy untyped with text", model.Slide{ID: "s", Text: "legacy", IsVisible: true}, true},
		{"legacy untyped empty", model.Slide{ID: "s", IsVisible: true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := model.ContentDoc{Playlists: []model.Playlist{
				{ID: "p", IsEnabled: true, RepeatCount: 1, Slides: []model.Slide{tc.slide}},
			}}
			sequence := Flatten(content)
			if tc.kept {
				assert.Len(t, sequence, 1)
			} else {
				assert.Empty(t, sequence)
			}
		})
	}
}

func TestFlattenClampsRepeatCount(t *testing.T) {
	content := model.ContentDoc{Playlists: []model.Playlist{
		{ID: "p", IsEnabled: true, RepeatCount: 0, Slides: []model.Slide{textSlide("a", "x", true)}},
		{ID: "q", IsEnabled: true, RepeatCount: -2, Slides: []model.Slide{textSlide("b", "y", true)}},
	}}

	sequence := Flatten(content)
	require.Len(t, sequence, 2)
	assert.Equal(t, "a", sequence[0].ID)
	assert.Equal(t, "b", sequence[1].ID)
}

func TestFlattenEmptyInput(t *testing.T) {
	assert.Empty(t, Flatten(model.ContentDoc{}))
	assert.Empty(t, Flatten(model.ContentDoc{Playlists: []model.Playlist{
		{ID: "p", IsEnabled: true, RepeatCount: 5},
	}}))
}
