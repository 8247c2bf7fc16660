package model

import "strings"

// SlideKind tags the slide variant. Legacy records have no kind stored and
// get one assigned by Normalize at load time.
type SlideKind string

const (
	SlideText  SlideKind = "text"
	SlideImage SlideKind = "image"
	SlideVideo SlideKind = "video"
)

// ImagePosition anchors the image inside its pane.
type ImagePosition string

const (
	PositionTopLeft      ImagePosition = "top-left"
	PositionTopCenter    ImagePosition = "top-center"
	PositionTopRight     ImagePosition = "top-right"
	PositionCenterLeft   ImagePosition = "center-left"
	PositionCenter       ImagePosition = "center-center"
	PositionCenterRight  ImagePosition = "center-right"
	PositionBottomLeft   ImagePosition = "bottom-left"
	PositionBottomCenter ImagePosition = "bottom-center"
	PositionBottomRight  ImagePosition = "bottom-right"
)

type ImageSide string

const (
	ImageLeft  ImageSide = "left"
	ImageRight ImageSide = "right"
)

type Layout string

const (
	LayoutSideBySide    Layout = "side-by-side"
	LayoutImageOnly     Layout = "image-only"
	LayoutTextOverImage Layout = "text-over-image"
	LayoutTextOnly      Layout = "text-only"
	LayoutVideo         Layout = "video"
)

type Transition string

const (
	TransitionNone           Transition = "none"
	TransitionFade           Transition = "fade"
	TransitionSlideLeft      Transition = "slide-left"
	TransitionSlideRight     Transition = "slide-right"
	TransitionSlideUp        Transition = "slide-up"
	TransitionSlideDown      Transition = "slide-down"
	TransitionZoomIn         Transition = "zoom-in"
	TransitionZoomOut        Transition = "zoom-out"
	TransitionFlipHorizontal Transition = "flip-horizontal"
	TransitionFlipVertical   Transition = "flip-vertical"
)

// DefaultSlideDuration is applied when a slide carries no usable duration.
const DefaultSlideDuration = 5

// Slide is one entry of a playlist. Text holds sanitized HTML.
type Slide struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Kind          SlideKind     `json:"kind,omitempty"`
	Text          string        `json:"text,omitempty"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	ImagePosition ImagePosition `json:"imagePosition,omitempty"`
	ImageSide     ImageSide     `json:"imageSide,omitempty"`
	Layout        Layout        `json:"layout,omitempty"`
	VideoURL      string        `json:"videoUrl,omitempty"`
	Duration      int           `json:"duration"`
	IsVisible     bool          `json:"isVisible"`
	ShowBar       bool          `json:"showBar"`
	Transition    Transition    `json:"transition,omitempty"`
}

// Normalize assigns a kind to legacy untagged slides. Priority follows the
// field-presence rules the admin editor used: a video URL wins, then an
// image URL, everything else is treated as a text slide.
func (s *Slide) Normalize() {
	if s.Kind != "" {
		return
	}
	switch {
	case s.VideoURL != "":
		s.Kind = SlideVideo
	case s.ImageURL != "":
		s.Kind = SlideImage
	default:
		s.Kind = SlideText
	}
}

// HasContent reports whether the slide has anything renderable for its kind.
// Slides failing this check are skipped by playback.
func (s Slide) HasContent() bool {
	switch s.Kind {
	case SlideVideo:
		return s.VideoURL != ""
	case SlideImage:
		return s.ImageURL != ""
	default:
		return strings.TrimSpace(s.Text) != ""
	}
}

// EffectiveDuration returns the playback duration in seconds. Zero and
// negative durations are coerced to the default; "display for 0 seconds"
// was never an authoring option.
func (s Slide) EffectiveDuration() int {
	if s.Duration <= 0 {
		return DefaultSlideDuration
	}
	return s.Duration
}

// Animated reports whether the transition needs a dual-render window.
func (t Transition) Animated() bool {
	return t != "" && t != TransitionNone
}
