package deps

import (
	"strings"

	"mashup/internal/config"
	"mashup/internal/services"
)

// Tools holds resolved absolute paths of the external executables. It is
// resolved once at startup and handed to the decoder, encoder, and provider.
type Tools struct {
	FFmpeg  string
	FFprobe string
	YTDLP   string
}

// Requirements lists the executables the pipeline needs for cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Required to decode downloads and encode the mashup"},
		{Name: "yt-dlp", Command: cfg.Tools.YTDLP, Description: "Required to search and download audio"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Reports the exported mashup duration", Optional: true},
	}
}

// ResolveTools looks up every required executable and fails with
// ErrConfiguration when a required one is missing. A missing optional tool
// resolves to an empty path.
func ResolveTools(cfg *config.Config) (Tools, error) {
	var tools Tools
	var missing []string
	for _, status := range CheckBinaries(Requirements(cfg)) {
		if !status.Available {
			if !status.Optional {
				missing = append(missing, status.Detail)
			}
			continue
		}
		switch status.Name {
		case "FFmpeg":
			tools.FFmpeg = status.Path
		case "yt-dlp":
			tools.YTDLP = status.Path
		case "FFprobe":
			tools.FFprobe = status.Path
		}
	}
	if len(missing) > 0 {
		return Tools{}, services.Wrap(services.ErrConfiguration, "deps", "resolve tools", strings.Join(missing, "; "), nil)
	}
	return tools, nil
}
