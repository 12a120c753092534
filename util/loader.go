// Package util - File loading helpers for labels and extracted video frames.
package util

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LoadLabels reads a label file: plain text, one label per line, where the
// 0-based line index is the class id. The line order is a bit-exact contract
// with the trained model, so lines are returned exactly as they appear —
// never sorted, never deduplicated. Trailing whitespace is trimmed; fully
// blank trailing lines are dropped.
//
// Arguments:
//   - path: The label file location.
//
// Returns:
//   - []string: Labels indexed by class id.
//   - error: Error if the file cannot be read.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	blankRun := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			// Interior blank lines keep their index so class ids stay
			// aligned; only a trailing run of blanks is discarded.
			blankRun++
			continue
		}
		for ; blankRun > 0; blankRun-- {
			labels = append(labels, "")
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// ImageFile represents one extracted video frame on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from the file name.
	Frame int
}

// LoadDirectoryImageFiles reads all frame images from a directory produced
// by an external frame extractor. Files are expected to be named
// frame-<n>.<ext>; the result is sorted by frame number so batch detection
// processes frames in capture order.
//
// Arguments:
//   - dir: Directory path containing the frame files.
//
// Returns:
//   - []ImageFile: Frames with raw bytes, sorted by frame index.
//   - error: Error if reading or name parsing fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := filepath.Ext(file.Name())
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, readErr
			}
			frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file.Name(), "frame-"), ext))
			if err != nil {
				return nil, err
			}
			frames = append(frames, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frame,
			})
		}
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})

	return frames, nil
}
