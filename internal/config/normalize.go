package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeMashup()
	c.normalizeAcquisition()
	if err := c.normalizeSMTP(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		c.Paths.APIBind = net.JoinHostPort("0.0.0.0", strings.TrimSpace(port))
	}
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}

	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("MASHUP_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	c.Tools.YTDLP = strings.TrimSpace(c.Tools.YTDLP)
	if c.Tools.YTDLP == "" {
		c.Tools.YTDLP = defaultYTDLP
	}
}

func (c *Config) normalizeMashup() {
	if c.Mashup.SampleRate <= 0 {
		c.Mashup.SampleRate = defaultSampleRate
	}
	if c.Mashup.Channels <= 0 {
		c.Mashup.Channels = defaultChannels
	}
	if c.Mashup.Bitrate <= 0 {
		c.Mashup.Bitrate = defaultBitrate
	}
	if c.Mashup.StaleAreaHours <= 0 {
		c.Mashup.StaleAreaHours = defaultStaleAreaHours
	}
}

func (c *Config) normalizeAcquisition() {
	c.Acquisition.AudioQuality = strings.TrimSpace(c.Acquisition.AudioQuality)
	if c.Acquisition.AudioQuality == "" {
		c.Acquisition.AudioQuality = defaultAudioQuality
	}
	if c.Acquisition.TimeoutSeconds <= 0 {
		c.Acquisition.TimeoutSeconds = defaultAcquireTimeout
	}
}

func (c *Config) normalizeSMTP() error {
	c.SMTP.Host = firstNonEmpty(c.SMTP.Host, os.Getenv("SMTP_HOST"))
	c.SMTP.Username = firstNonEmpty(c.SMTP.Username, os.Getenv("SMTP_USERNAME"), os.Getenv("EMAIL_USER"))
	c.SMTP.Password = firstNonEmpty(c.SMTP.Password, os.Getenv("SMTP_PASSWORD"), os.Getenv("EMAIL_PASS"))
	c.SMTP.From = firstNonEmpty(c.SMTP.From, os.Getenv("SMTP_FROM"), c.SMTP.Username)
	if value := strings.TrimSpace(os.Getenv("SMTP_PORT")); value != "" && (c.SMTP.Port == 0 || c.SMTP.Port == defaultSMTPPort) {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %q is not a number", value)
		}
		c.SMTP.Port = port
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = defaultSMTPPort
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
