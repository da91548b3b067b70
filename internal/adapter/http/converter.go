package http

import (
	"sort"
	"time"

	"github.com/flight-fares/fare-harvester/internal/usecase"
)

// ToProgressResponse converts a collector status into the progress body.
func ToProgressResponse(s usecase.Status) ProgressResponse {
	resp := ProgressResponse{
		Done:         s.Progress.Done,
		Total:        s.Progress.Total,
		Percent:      s.Progress.Percent,
		ETA:          "--",
		ETASeconds:   -1,
		Line:         s.Progress.Line(),
		Pairs:        s.Pairs,
		FilesWritten: s.FilesWritten,
		Skipped:      s.Skipped,
		Warnings:     s.Warnings,
		Ignored:      len(s.Ignored),
	}
	if s.Progress.Done > 0 {
		eta := s.Progress.ETA.Round(time.Second)
		resp.ETA = eta.String()
		resp.ETASeconds = int64(eta / time.Second)
	}
	return resp
}

// ToIgnoredResponse lists the newly ignored pairs as sorted "A-B" strings.
func ToIgnoredResponse(s usecase.Status) IgnoredResponse {
	pairs := make([]string, 0, len(s.Ignored))
	for _, p := range s.Ignored {
		pairs = append(pairs, p.String())
	}
	sort.Strings(pairs)
	return IgnoredResponse{Count: len(pairs), Pairs: pairs}
}
