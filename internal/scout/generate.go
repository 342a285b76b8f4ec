package scout

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
)

// Metric ranges for synthetic home runs.
const (
	exitVeloMin   = 95.0
	exitVeloRange = 25.0
	distanceMin   = 340.0
	distanceRange = 140.0
	angleMin      = 18.0
	angleRange    = 22.0
)

// trajectories rotate through the generated titles.
var trajectories = []string{"fly ball", "line drive"}

var fields = []string{"left field", "left-center field", "center field", "right-center field", "right field"}

var (
	firstNames = []string{"Ana", "Bo", "Cal", "Dee", "Eli", "Fay", "Gus", "Hal", "Ivy", "Jo", "Kai", "Lu"}
	lastNames  = []string{"Ames", "Baker", "Cruz", "Diaz", "Ellis", "Fox", "Gray", "Hart", "Ito", "Jones", "Kim", "Lopez"}
)

// GenerateConfig controls a synthetic dataset.
type GenerateConfig struct {
	Players int
	Events  int
	Seed    int64
}

// Generate writes a header and cfg.Events rows spread round-robin across
// cfg.Players synthetic players. The same seed always produces the same bytes.
func Generate(w io.Writer, cfg GenerateConfig) error {
	if cfg.Players <= 0 || cfg.Events <= 0 {
		return fmt.Errorf("generate: %w", ErrInvalidCount)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // synthetic data
	players := playerNames(cfg.Players)
	homers := make([]int, len(players))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "video", "ExitVelocity", "HitDistance", "LaunchAngle"}); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	for i := 0; i < cfg.Events; i++ {
		p := i % len(players)
		homers[p]++

		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		title := fmt.Sprintf("%s homers (%d) on a %s to %s.",
			players[p], homers[p],
			trajectories[rng.Intn(len(trajectories))],
			fields[rng.Intn(len(fields))])
		row := []string{
			title,
			"https://clips.dinger.test/" + id.String() + ".mp4",
			strconv.FormatFloat(exitVeloMin+rng.Float64()*exitVeloRange, 'f', 1, 64),
			strconv.Itoa(int(distanceMin + rng.Float64()*distanceRange)),
			strconv.Itoa(int(angleMin + rng.Float64()*angleRange)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}

// playerNames builds n distinct names, none of which is a prefix of
// another. Past the first/last grid a middle initial is added.
func playerNames(n int) []string {
	grid := len(firstNames) * len(lastNames)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		first := firstNames[i%len(firstNames)]
		last := lastNames[(i/len(firstNames))%len(lastNames)]
		round := i / grid
		if round == 0 {
			out[i] = first + " " + last
			continue
		}
		middle := string(rune('A' + (round-1)%26))
		if round > 26 {
			middle += strconv.Itoa((round - 1) / 26)
		}
		out[i] = first + " " + middle + ". " + last
	}
	return out
}
