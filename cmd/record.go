package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/jsphweid/midigen/codec"
	"github.com/jsphweid/midigen/player"
)

var recordPort string
var recordOut string
var recordTempo float64
var recordIdle time.Duration

func init() {
	recordCmd.Flags().StringVar(&recordPort, "port", "", "MIDI in port name (default: first port)")
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "captured.mid", "output file path")
	recordCmd.Flags().Float64Var(&recordTempo, "tempo", 120, "tempo used to convert timestamps to ticks")
	recordCmd.Flags().DurationVar(&recordIdle, "idle", 2*time.Second, "stop after this long with no incoming events")
	rootCmd.AddCommand(recordCmd)
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Records from a MIDI device",
	Long:  `Captures live input from a MIDI port into a .mid file. Recording stops after the idle timeout or on Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		rec := player.NewRecorder(recordTempo, recordIdle)
		if err := rec.Start(recordPort); err != nil {
			return err
		}
		fmt.Printf("Recording %v (stops after %v idle, or Ctrl-C)...\n", rec.ID, recordIdle)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		seq, err := rec.Wait(ctx)
		if err != nil {
			return err
		}
		if seq.NumNotes() == 0 {
			fmt.Println("Nothing captured")
			return nil
		}
		data, err := codec.Encode(seq)
		if err != nil {
			return err
		}
		if err := os.WriteFile(recordOut, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %v notes to %v\n", seq.NumNotes(), recordOut)
		return nil
	},
}
