package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"idwinterp/internal/models"
)

const (
	volumeVersion = 1

	// maxVolumeCells bounds the allocation made when reading a volume
	maxVolumeCells = 1 << 28
)

var volumeMagic = [4]byte{'I', 'D', 'W', 'V'}

// ErrBadVolume is returned when a volume stream cannot be decoded
var ErrBadVolume = errors.New("bad volume")

// volumeHeader precedes the cell data. Everything after the zstd frame
// header is little endian.
type volumeHeader struct {
	Magic   [4]byte
	Version uint32
	Width   uint32
	Height  uint32
	Depth   uint32
	Origin  [3]float64
	Spacing [3]float64
}

// WriteVolume writes vol to w as a zstd compressed stream. level ranges
// from 1 (fastest) to 4 (best compression).
func WriteVolume(w io.Writer, vol *models.Volume, level int) error {
	if len(vol.Data) != vol.Width*vol.Height*vol.Depth {
		return fmt.Errorf("%w: %d cells for %dx%dx%d volume",
			ErrBadVolume, len(vol.Data), vol.Width, vol.Height, vol.Depth)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}

	hdr := volumeHeader{
		Magic:   volumeMagic,
		Version: volumeVersion,
		Width:   uint32(vol.Width),
		Height:  uint32(vol.Height),
		Depth:   uint32(vol.Depth),
		Origin:  vol.Origin,
		Spacing: vol.Spacing,
	}
	if err := binary.Write(enc, binary.LittleEndian, &hdr); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to write volume header: %w", err)
	}
	if err := binary.Write(enc, binary.LittleEndian, vol.Data); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to write volume data: %w", err)
	}

	return enc.Close()
}

// ReadVolume decodes a volume written by WriteVolume
func ReadVolume(r io.Reader) (*models.Volume, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	var hdr volumeHeader
	if err := binary.Read(dec, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrBadVolume, err)
	}
	if hdr.Magic != volumeMagic {
		return nil, fmt.Errorf("%w: unexpected magic %q", ErrBadVolume, hdr.Magic[:])
	}
	if hdr.Version != volumeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadVolume, hdr.Version)
	}

	cells := uint64(hdr.Width) * uint64(hdr.Height) * uint64(hdr.Depth)
	if cells > maxVolumeCells {
		return nil, fmt.Errorf("%w: %d cells exceeds limit", ErrBadVolume, cells)
	}

	vol := models.NewVolume(int(hdr.Width), int(hdr.Height), int(hdr.Depth))
	vol.Origin = hdr.Origin
	vol.Spacing = hdr.Spacing
	if err := binary.Read(dec, binary.LittleEndian, vol.Data); err != nil {
		return nil, fmt.Errorf("%w: reading data: %w", ErrBadVolume, err)
	}

	return vol, nil
}

// SaveVolume writes vol to path, creating parent directories as needed
func SaveVolume(path string, vol *models.Volume, level int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create volume directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}

	if err := WriteVolume(file, vol, level); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// LoadVolume reads a volume saved by SaveVolume
func LoadVolume(path string) (*models.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadVolume(file)
}
