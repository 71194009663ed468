package shaderbox

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Resolution is the off-screen render resolution.
type Resolution struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// SwapChainSettings configure the presentation chain.
type SwapChainSettings struct {
	BufferCount     int `toml:"buffer_count"`
	MaxFrameLatency int `toml:"max_frame_latency"`
}

// VideoSettings configure video capture.
type VideoSettings struct {
	FrameRate int `toml:"frame_rate"`
	BitRate   int `toml:"bit_rate"`
	// EndFrame stops capture after this many frames; 0 captures until
	// StopVideo.
	EndFrame uint64 `toml:"end_frame"`
}

// Settings is the on-disk TOML configuration.
type Settings struct {
	Resolution Resolution        `toml:"resolution"`
	SwapChain  SwapChainSettings `toml:"swap_chain"`
	// MaxFrameRate caps the render loop; 0 leaves it uncapped.
	MaxFrameRate int           `toml:"max_frame_rate"`
	Video        VideoSettings `toml:"video"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Resolution: Resolution{Width: 1280, Height: 720},
		SwapChain: SwapChainSettings{
			BufferCount:     2,
			MaxFrameLatency: 1,
		},
		Video: VideoSettings{
			FrameRate: 60,
			BitRate:   1_500_000,
		},
	}
}

// LoadSettings reads path, creating it with defaults when missing.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := DefaultSettings()
		if err := s.Save(path); err != nil {
			return Settings{}, err
		}
		Logger().Info("created settings file", "path", path)
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("shaderbox: reading settings: %w", err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("shaderbox: parsing settings: %w", err)
	}
	return s, nil
}

// Save writes the settings to path as TOML.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("shaderbox: encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("shaderbox: writing settings: %w", err)
	}
	return nil
}
