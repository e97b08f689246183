package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMashup(); err != nil {
		return err
	}
	if err := c.validateSMTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateMashup() error {
	if c.Mashup.MinItems < 1 {
		return errors.New("mashup.min_items must be at least 1")
	}
	if c.Mashup.MinClipSeconds < 1 {
		return errors.New("mashup.min_clip_seconds must be at least 1")
	}
	if c.Mashup.Channels > 2 {
		return errors.New("mashup.channels must be 1 or 2")
	}
	switch c.Mashup.Bitrate {
	case 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320:
	default:
		return fmt.Errorf("mashup.bitrate %d is not a valid MP3 bitrate", c.Mashup.Bitrate)
	}
	return nil
}

func (c *Config) validateSMTP() error {
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port %d out of range", c.SMTP.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
