package config

const (
	defaultWorkDir        = "~/.local/share/mashup/work"
	defaultOutputDir      = "~/.local/share/mashup/output"
	defaultStateDir       = "~/.local/share/mashup"
	defaultLogDir         = "~/.local/share/mashup/logs"
	defaultAPIBind        = "127.0.0.1:10000"
	defaultFFmpeg         = "ffmpeg"
	defaultFFprobe        = "ffprobe"
	defaultYTDLP          = "yt-dlp"
	defaultMinItems       = 10
	defaultMinClipSeconds = 20
	defaultSampleRate     = 44100
	defaultChannels       = 2
	defaultBitrate        = 192
	defaultStaleAreaHours = 24
	defaultAudioQuality   = "192K"
	defaultAcquireTimeout = 1800
	defaultSMTPPort       = 587
	defaultNotifyTimeout  = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			YTDLP:   defaultYTDLP,
		},
		Mashup: Mashup{
			MinItems:       defaultMinItems,
			MinClipSeconds: defaultMinClipSeconds,
			SampleRate:     defaultSampleRate,
			Channels:       defaultChannels,
			Bitrate:        defaultBitrate,
			StaleAreaHours: defaultStaleAreaHours,
		},
		Acquisition: Acquisition{
			AudioQuality:   defaultAudioQuality,
			TimeoutSeconds: defaultAcquireTimeout,
		},
		SMTP: SMTP{
			Port: defaultSMTPPort,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
