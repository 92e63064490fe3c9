package system

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DecodeWorkers returns how many images to decode in parallel: the
// physical core count, capped so a huge machine does not hold dozens
// of full-size bitmaps in flight at once.
func DecodeWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// EnoughMemory reports whether the host has at least the given number
// of bytes available. Errors from the probe count as "enough": the
// check only exists to warn early, decoding proceeds either way.
func EnoughMemory(need uint64) bool {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return true
	}
	return vm.Available >= need
}

// FrameBytes estimates the RGBA memory needed for the surface plus the
// decoded slides.
func FrameBytes(width, height, slideCount int) uint64 {
	frame := uint64(width) * uint64(height) * 4
	return frame * uint64(slideCount+1)
}

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// FindLatestInput returns the most recently modified PDF or image file
// in dir. Directories full of images are the common layout, so when
// the newest entry is an image the whole dir is returned instead.
func FindLatestInput(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latest string
	var latestTime time.Time
	latestIsImage := false

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := strings.ToLower(f.Name())
		isPDF := strings.HasSuffix(name, ".pdf")
		isImage := false
		for _, ext := range imageExtensions {
			if strings.HasSuffix(name, ext) {
				isImage = true
				break
			}
		}
		if !isPDF && !isImage {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(dir, f.Name())
			latestIsImage = isImage
		}
	}

	if latest == "" {
		return "", fmt.Errorf("в папке %s не найдено PDF или изображений", dir)
	}
	if latestIsImage {
		return dir, nil
	}
	return latest, nil
}
