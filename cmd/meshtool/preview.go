package main

import (
	"flag"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/preview"
	"github.com/Faultbox/meshport/pkg/importer"
)

type previewJob struct {
	src, out string
}

type previewResult struct {
	previewJob
	elapsed time.Duration
	err     error
}

func cmdPreview(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	size := fs.Int("size", 0, "Output size in pixels")
	ss := fs.Int("ss", 0, "Supersample factor")
	yaw := fs.Float64("yaw", 0, "Yaw in degrees")
	pitch := fs.Float64("pitch", 0, "Pitch in degrees")
	workers := fs.Int("j", 0, "Parallel workers (0 = one per CPU)")
	out := fs.String("o", ".", "Output directory, or file for a single input")
	format := fs.String("format", "", "Image format for directory output: webp or png")
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1, "preview [options] <files...>"); err != nil {
		return err
	}

	// Flags given explicitly override the config file.
	pc := cfg.Preview
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			pc.Size = *size
		case "ss":
			pc.Supersample = *ss
		case "yaw":
			pc.Yaw = float32(*yaw)
		case "pitch":
			pc.Pitch = float32(*pitch)
		case "j":
			pc.Workers = *workers
		case "format":
			pc.Format = *format
		}
	})
	if pc.Format != "webp" && pc.Format != "png" {
		return fmt.Errorf("%w: format %q, want webp or png", errUsage, pc.Format)
	}

	files := fs.Args()
	jobs := make([]previewJob, len(files))
	seen := make(map[string]string)
	for i, src := range files {
		dst := preview.OutputPath(src, *out, pc.Format)
		if prev, ok := seen[dst]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", errUsage, prev, src, dst)
		}
		seen[dst] = src
		jobs[i] = previewJob{src: src, out: dst}
	}

	results := renderPreviews(jobs, pc, cfg.ImportOptions(log), log)

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s: %v\n", r.src, r.err)
			continue
		}
		fmt.Fprintf(stdout, "ok   %s -> %s (%s)\n", r.src, r.out, r.elapsed.Round(time.Millisecond))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d previews failed", failed, len(results))
	}
	return nil
}

// renderPreviews runs the jobs on a worker pool, one Importer per job.
// Results keep the order of jobs.
func renderPreviews(jobs []previewJob, pc config.PreviewConfig, opts importer.Options, log *zap.Logger) []previewResult {
	workers := pc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]previewResult, len(jobs))
	queue := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				start := time.Now()
				err := renderOne(jobs[i], pc, opts)
				results[i] = previewResult{previewJob: jobs[i], elapsed: time.Since(start), err: err}
				if err != nil {
					log.Warn("preview failed", zap.String("path", jobs[i].src), zap.Error(err))
				} else {
					log.Debug("preview written", zap.String("path", jobs[i].src), zap.String("out", jobs[i].out))
				}
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	return results
}

func renderOne(job previewJob, pc config.PreviewConfig, opts importer.Options) error {
	im := importer.Open(job.src, opts)
	defer im.Close()
	if !im.Valid() {
		return im.Err()
	}

	mesh, err := preview.FromImporter(im)
	if err != nil {
		return err
	}
	img, err := preview.Render(mesh, preview.Options{
		Size:        pc.Size,
		Supersample: pc.Supersample,
		Yaw:         pc.Yaw,
		Pitch:       pc.Pitch,
	})
	if err != nil {
		return err
	}
	return preview.Save(job.out, img)
}
