// Command analyze prints quick, human-readable statistics about randomly laid
// out boards: how many connected components they split into, how large the
// biggest one is and how far each player can walk from their start tile.
// With --insertions it keeps sliding random spare tiles in to show how the
// picture changes as a game goes on.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// Options controls one analysis run
type Options struct {
	Boards     int
	Insertions int
	Seed       uint64
}

// Report aggregates the statistics of every analyzed board
type Report struct {
	Boards            int
	Insertions        int
	RejectedInserts   int
	MinComponents     int
	MaxComponents     int
	TotalComponents   int
	TotalLargest      int
	Isolated          int
	StartsConnected   int
	ReachableByPlayer map[board.Player]int
}

// AvgComponents is the mean number of components per board
func (r Report) AvgComponents() float64 {
	return float64(r.TotalComponents) / float64(r.Boards)
}

// AvgLargest is the mean size of the largest component
func (r Report) AvgLargest() float64 {
	return float64(r.TotalLargest) / float64(r.Boards)
}

// AvgReachable is the mean number of locations p can reach from its start
func (r Report) AvgReachable(p board.Player) float64 {
	return float64(r.ReachableByPlayer[p]) / float64(r.Boards)
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Print connectivity statistics for random boards",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "boards", Value: 100, Usage: "number of boards to lay out"},
			&cli.IntFlag{Name: "insertions", Usage: "random spare insertions applied to each board"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed (0 picks one)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := Options{
				Boards:     cmd.Int("boards"),
				Insertions: cmd.Int("insertions"),
				Seed:       cmd.Uint64("seed"),
			}
			if opts.Seed == 0 {
				opts.Seed = rand.Uint64()
			}
			report, err := Analyze(opts)
			if err != nil {
				return err
			}
			PrintReport(os.Stdout, opts, report)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Analyze lays out opts.Boards boards and collects their statistics
func Analyze(opts Options) (Report, error) {
	if opts.Boards <= 0 {
		return Report{}, fmt.Errorf("boards must be positive, got %d", opts.Boards)
	}
	if opts.Insertions < 0 {
		return Report{}, fmt.Errorf("insertions must not be negative, got %d", opts.Insertions)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	players := board.AllPlayers[:]
	report := Report{
		Boards:            opts.Boards,
		Insertions:        opts.Insertions,
		MinComponents:     board.Size * board.Size,
		ReachableByPlayer: make(map[board.Player]int),
	}

	for range opts.Boards {
		g, err := board.New(rng, players)
		if err != nil {
			return Report{}, err
		}
		for range opts.Insertions {
			report.RejectedInserts += insertRandom(rng, g)
		}
		if err := report.add(g, players); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

// insertRandom slides the spare in at a random entry point, trying the
// orientations in turn until one is accepted. It returns the number of
// rejected attempts.
func insertRandom(rng *rand.Rand, g *board.Grid) int {
	entries := board.EntryPoints()
	rejected := 0
	for {
		at := entries[rng.IntN(len(entries))]
		first := rng.IntN(len(board.Orientations))
		for i := range board.Orientations {
			o := board.Orientations[(first+i)%len(board.Orientations)]
			if err := g.InsertSpare(at, o); err == nil {
				return rejected
			}
			rejected++
		}
	}
}

func (r *Report) add(g *board.Grid, players []board.Player) error {
	c := board.NewComponents(g)

	count := c.Count()
	r.TotalComponents += count
	r.MinComponents = min(r.MinComponents, count)
	r.MaxComponents = max(r.MaxComponents, count)

	sizes := c.Sizes()
	r.TotalLargest += slices.Max(sizes)
	for _, size := range sizes {
		if size == 1 {
			r.Isolated++
		}
	}

	tokens := g.Tokens()
	connected := true
	for _, p := range players {
		at := tokens[p]
		reachable, err := c.Reachable(at)
		if err != nil {
			return err
		}
		r.ReachableByPlayer[p] += len(reachable)

		ok, err := c.Connected(tokens[players[0]], at)
		if err != nil {
			return err
		}
		connected = connected && ok
	}
	if connected {
		r.StartsConnected++
	}
	return nil
}

// PrintReport writes the report in a human-readable form
func PrintReport(w io.Writer, opts Options, r Report) {
	fmt.Fprintf(w, "=== %d boards, seed %d, %d insertions each ===\n", r.Boards, opts.Seed, r.Insertions)
	fmt.Fprintf(w, "Components: avg %.2f, min %d, max %d\n", r.AvgComponents(), r.MinComponents, r.MaxComponents)
	fmt.Fprintf(w, "Largest component: avg %.2f of %d locations\n", r.AvgLargest(), board.Size*board.Size)
	fmt.Fprintf(w, "Isolated tiles: %d (%.2f per board)\n", r.Isolated, float64(r.Isolated)/float64(r.Boards))
	if r.Insertions > 0 {
		fmt.Fprintf(w, "Rejected insertions: %d\n", r.RejectedInserts)
	}
	for _, p := range board.AllPlayers {
		fmt.Fprintf(w, "%s reaches %.2f locations from its token on average\n", p, r.AvgReachable(p))
	}

	percent := 100 * float64(r.StartsConnected) / float64(r.Boards)
	if r.StartsConnected == 0 {
		fmt.Fprintf(w, "⚠️  No board joined all four players\n")
	} else {
		fmt.Fprintf(w, "✅ All four players joined on %d boards (%.1f%%)\n", r.StartsConnected, percent)
	}
}
