package scout

import (
	"io"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/okian/dinger/internal/domain/types"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// formatMetric renders a poisoned average as "n/a".
func formatMetric(m types.Metric) string {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// PrintProfile writes one player's averages.
func PrintProfile(w io.Writer, p types.Profile) {
	table := newTable(w)
	table.Header("PLAYER", "HR", "EXIT_VELO", "DISTANCE", "ANGLE")
	table.Append(
		p.Name,
		strconv.Itoa(p.SampleSize),
		formatMetric(p.ExitVelocityAvg),
		formatMetric(p.HitDistanceAvg),
		formatMetric(p.LaunchAngleAvg),
	)
	table.Render()
}

// PrintNeighbors writes a similarity ranking.
func PrintNeighbors(w io.Writer, neighbors []types.Neighbor) {
	table := newTable(w)
	table.Header("#", "PLAYER", "HR", "EXIT_VELO", "DISTANCE", "ANGLE", "SCORE")
	for _, n := range neighbors {
		table.Append(
			strconv.Itoa(n.Rank),
			n.Name,
			strconv.Itoa(n.SampleSize),
			formatMetric(n.ExitVelocityAvg),
			formatMetric(n.HitDistanceAvg),
			formatMetric(n.LaunchAngleAvg),
			formatMetric(n.Distance),
		)
	}
	table.Render()
}

// PrintClips writes a player's clips, one per row.
func PrintClips(w io.Writer, list types.MediaList) {
	table := newTable(w)
	table.Header("#", "CLIP")
	for i, c := range list.Clips {
		table.Append(strconv.Itoa(i+1), c)
	}
	table.Render()
}

// PrintLoadStats writes the outcome of a load run.
func PrintLoadStats(w io.Writer, s Stats) {
	table := newTable(w)
	table.Header("SUBMITTED", "ACCEPTED", "DUPLICATE", "REJECTED", "READY", "FAILED", "PENDING", "DURATION")
	table.Append(
		strconv.Itoa(s.Submitted),
		strconv.Itoa(s.Accepted),
		strconv.Itoa(s.Duplicate),
		strconv.Itoa(s.Rejected),
		strconv.Itoa(s.Ready),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Pending),
		s.Duration.Round(time.Millisecond).String(),
	)
	table.Render()
}
