package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/jsphweid/midigen/codec"
	"github.com/jsphweid/midigen/generate"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/player"
)

var playFlags genFlags
var playPort string
var playFile string

func init() {
	addGenFlags(playCmd, &playFlags)
	playCmd.Flags().StringVar(&playPort, "port", "", "MIDI out port name (default: first port)")
	playCmd.Flags().StringVar(&playFile, "file", "", "play an existing .mid file instead of generating")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Plays to a MIDI device",
	Long:  `Generates a sequence (or reads a .mid file) and streams it to a live MIDI output port. Ctrl-C stops cleanly with all notes off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		var seq *model.Sequence
		if playFile != "" {
			data, err := os.ReadFile(playFile)
			if err != nil {
				return err
			}
			seq, err = codec.Decode(data)
			if err != nil {
				return err
			}
		} else {
			var warnings []string
			var err error
			seq, warnings, err = generate.Generate(playFlags.toConfig(cmd))
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				fmt.Fprintln(os.Stderr, "warning:", warning)
			}
		}

		p, err := player.Open(playPort)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = p.Play(ctx, seq)
		if errors.Is(err, model.ErrPlaybackCancelled) {
			fmt.Println("stopped")
			return nil
		}
		return err
	},
}
