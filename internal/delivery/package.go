package delivery

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mashup/internal/services"
)

// ZipPathFor returns the archive path that sits next to mp3Path.
func ZipPathFor(mp3Path string) string {
	ext := filepath.Ext(mp3Path)
	return strings.TrimSuffix(mp3Path, ext) + ".zip"
}

// Package writes a zip archive at zipPath containing mp3Path under its base
// name. A partially written archive is removed on failure.
func Package(mp3Path, zipPath string) (err error) {
	src, err := os.Open(mp3Path)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "package", "open mashup", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "package", "stat mashup", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "package", "create archive", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(zipPath)
		}
	}()

	archive := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		_ = out.Close()
		return services.Wrap(services.ErrDelivery, "deliver", "package", "build archive header", err)
	}
	header.Name = filepath.Base(mp3Path)
	// MP3 frames are already compressed.
	header.Method = zip.Store

	entry, err := archive.CreateHeader(header)
	if err != nil {
		_ = out.Close()
		return services.Wrap(services.ErrDelivery, "deliver", "package", "add archive entry", err)
	}
	if _, err = io.Copy(entry, src); err != nil {
		_ = out.Close()
		return services.Wrap(services.ErrDelivery, "deliver", "package", "write archive entry", err)
	}
	if err = archive.Close(); err != nil {
		_ = out.Close()
		return services.Wrap(services.ErrDelivery, "deliver", "package", "finalize archive", err)
	}
	if err = out.Close(); err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "package", "close archive", fmt.Errorf("%s: %w", zipPath, err))
	}
	return nil
}
