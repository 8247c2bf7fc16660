package model

// BarStyle places the info bar. Values match what the admin UI stores.
type BarStyle string

const (
	BarBottom            BarStyle = "onder"
	BarTop               BarStyle = "boven"
	BarTransparentBottom BarStyle = "transparant onder"
	BarTransparentTop    BarStyle = "transparant boven"
)

// Settings is the display-settings document: appearance plus the feed set.
type Settings struct {
	LogoURL         string   `json:"logoUrl,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	ForegroundColor string   `json:"foregroundColor,omitempty"`
	ShowClock       bool     `json:"showClock"`
	BarStyle        BarStyle `json:"barStyle,omitempty"`
	Feeds           []Feed   `json:"feeds,omitempty"`
}
