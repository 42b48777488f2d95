package patchfile

import (
	"fmt"
	"os"

	"github.com/soundwerk/mw4ctl/internal/protocol"
)

// ReadSyx reads a raw .syx file and splits it into complete SysEx frames.
// Bytes outside F0..F7 framing are rejected, since a .syx file is supposed
// to contain nothing else.
func ReadSyx(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read syx file: %w", err)
	}

	var frames [][]byte
	i := 0
	for i < len(data) {
		if data[i] != protocol.SysExStart {
			return nil, fmt.Errorf("unexpected byte 0x%02X at offset %d, expected start of SysEx", data[i], i)
		}
		end := -1
		for j := i + 1; j < len(data); j++ {
			if data[j] == protocol.SysExEnd {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("unterminated SysEx frame at offset %d", i)
		}
		frame := make([]byte, end-i+1)
		copy(frame, data[i:end+1])
		frames = append(frames, frame)
		i = end + 1
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("syx file %s contains no SysEx frames", path)
	}
	return frames, nil
}

// WriteSyx writes frames back to back into a .syx file.
func WriteSyx(path string, frames [][]byte) error {
	var size int
	for _, f := range frames {
		size += len(f)
	}
	data := make([]byte, 0, size)
	for _, f := range frames {
		data = append(data, f...)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write syx file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save syx file: %w", err)
	}
	return nil
}
