package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"geoengine/cli/internal/config"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"

	"github.com/spf13/cobra"
)

// queryFlags bundles the flags that describe a query rectangle. Commands that
// query a workflow register these and parse them into a geo.QueryRectangle,
// falling back to config defaults for SRS and resolution.
type queryFlags struct {
	bbox       string
	timeArg    string
	resolution string
	srs        string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.bbox, "bbox", "", "Bounding box as xmin,ymin,xmax,ymax (required)")
	cmd.Flags().StringVar(&q.timeArg, "time", "", "Time instant or interval, RFC 3339 (e.g. 2014-04-01T12:00:00Z or start/end) (required)")
	cmd.Flags().StringVar(&q.resolution, "resolution", "", "Spatial resolution as x,y or a single value (default from config)")
	cmd.Flags().StringVar(&q.srs, "srs", "", "Spatial reference system (default from config, usually EPSG:4326)")
	_ = cmd.MarkFlagRequired("bbox")
	_ = cmd.MarkFlagRequired("time")
}

func (q *queryFlags) parse() (geo.QueryRectangle, error) {
	var rect geo.QueryRectangle

	cfg, err := config.Load()
	if err != nil {
		return rect, err
	}

	bounds, err := geo.ParseBoundingBox(q.bbox)
	if err != nil {
		return rect, err
	}

	interval, err := geo.ParseTimeInterval(q.timeArg)
	if err != nil {
		return rect, err
	}

	res, err := parseResolution(q.resolution, cfg.Resolution)
	if err != nil {
		return rect, err
	}

	srs := q.srs
	if srs == "" {
		srs = cfg.SRS
	}
	if srs == "" {
		srs = "EPSG:4326"
	}

	return geo.NewQueryRectangle(bounds, interval, res, srs), nil
}

func parseResolution(s string, fallback float64) (geo.SpatialResolution, error) {
	if s == "" {
		return geo.NewSpatialResolution(fallback, fallback)
	}
	parts := strings.Split(s, ",")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return geo.SpatialResolution{}, errors.Wrap(errors.InvalidInput, "resolution", err)
		}
		return geo.NewSpatialResolution(v, v)
	case 2:
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return geo.SpatialResolution{}, errors.Wrap(errors.InvalidInput, "resolution x", err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return geo.SpatialResolution{}, errors.Wrap(errors.InvalidInput, "resolution y", err)
		}
		return geo.NewSpatialResolution(x, y)
	default:
		return geo.SpatialResolution{}, errors.New(errors.InvalidInput, "resolution must be one value or x,y")
	}
}

// openOutput opens the output target. "-" or an empty path means stdout,
// which the caller must not close.
func openOutput(path string) (io.WriteCloser, bool, error) {
	if path == "" || path == "-" {
		return os.Stdout, false, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// readInput reads the given file, or stdin when the path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// startInlineSpinner starts a simple inline spinner animation on a single
// line. The spinner runs in a separate goroutine and is stopped by calling
// the returned function, which clears the line.
func startInlineSpinner(w io.Writer, text string) func() {
	frames := []string{"|", "/", "-", "\\"}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		i := 0
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}
