package track

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/physics"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/track"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

type trackOptions struct {
	grid    int
	seed    int64
	raceID  string
	asJSON  bool
	profile bool
}

func NewTrackCmd() *cobra.Command {
	opts := trackOptions{}
	cmd := &cobra.Command{
		Use:   "track",
		Short: "generates a track and prints it",
		Long: `Generates a track and prints it.
With --race the track of that race id is generated, otherwise --seed is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showTrack(cmd.OutOrStdout(), &opts)
		},
	}
	cmd.Flags().IntVar(&opts.grid, "grid", model.DefaultGridSize, "grid size")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for the generator")
	cmd.Flags().StringVar(&opts.raceID, "race", "", "race id, e.g. 2026-10-16_10:00")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the track as json")
	cmd.Flags().BoolVar(&opts.profile, "profile", false, "print the speed profile")
	return cmd
}

func showTrack(w io.Writer, opts *trackOptions) error {
	genOpt := track.WithSeed(opts.seed)
	if opts.raceID != "" {
		genOpt = track.WithRand(utils.NewSeededRand(opts.raceID, "track"))
	}
	t := track.Generate(opts.grid, genOpt)
	if err := track.Validate(t); err != nil {
		return err
	}

	var profile []float64
	if opts.profile {
		profile = physics.BuildSpeedProfile(t)
	}

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*model.Track
			SpeedProfile []float64 `json:"speedProfile,omitempty"`
		}{t, profile})
	}

	fmt.Fprintln(w, track.Render(t))
	fmt.Fprintf(w, "grid %dx%d, %d tiles\n", t.GridWidth, t.GridHeight, t.Len())
	if opts.profile {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tx\ty\ttype\tspeed (ft/s)")
		for i, tile := range t.Tiles {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%.1f\n",
				i, tile.X, tile.Y, tile.Type, profile[i])
		}
		return tw.Flush()
	}
	return nil
}
