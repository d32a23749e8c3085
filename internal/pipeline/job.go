package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/san-kum/partvid/internal/config"
)

const VideoExt = ".mp4"

type Job struct {
	Input  string
	Output string
	Render config.Render
}

type Result struct {
	Job       Job
	Frames    int
	Events    int
	Timesteps int
	Start     float64
	End       float64
	Elapsed   time.Duration
	Err       error
}

// OutputPath names the video for input: its base name with the extension
// replaced, placed in dir.
func OutputPath(input, dir string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, base+VideoExt)
}

// NewJobs pairs every input with its board size and rectangle height. The
// slices must have the same length as inputs.
func NewJobs(inputs []string, boardSizes, rectHeights []float64, base config.Render, outDir string) []Job {
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		r := base
		r.BoardSize = boardSizes[i]
		r.RectHeight = rectHeights[i]
		jobs[i] = Job{Input: in, Output: OutputPath(in, outDir), Render: r}
	}
	return jobs
}
