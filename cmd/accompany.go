package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsphweid/midigen/codec"
	"github.com/jsphweid/midigen/generate"
	"github.com/jsphweid/midigen/model"
)

var accompanyFile string
var accompanyOut string
var accompanyKey string
var accompanyScale string
var accompanyProgression string
var accompanyVelocity uint8

func init() {
	accompanyCmd.Flags().StringVarP(&accompanyFile, "file", "f", "", "input .mid file")
	accompanyCmd.Flags().StringVarP(&accompanyOut, "out", "o", "combined.mid", "output file path")
	accompanyCmd.Flags().StringVar(&accompanyKey, "key", "C", "fallback key when the file declares no key signature")
	accompanyCmd.Flags().StringVar(&accompanyScale, "scale", "major", "fallback scale")
	accompanyCmd.Flags().StringVar(&accompanyProgression, "progression", "", `progression, e.g. "2,5,1,6" (default ii-V-I-vi)`)
	accompanyCmd.Flags().Uint8Var(&accompanyVelocity, "velocity", 0, "chord velocity (default: input average)")
	accompanyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(accompanyCmd)
}

var accompanyCmd = &cobra.Command{
	Use:   "accompany",
	Short: "Adds a chord accompaniment to a MIDI file",
	Long:  `Reads a .mid file, generates a chord accompaniment in its key spanning its length, and writes the combined file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(accompanyFile)
		if err != nil {
			return err
		}
		seq, err := codec.Decode(data)
		if err != nil {
			return err
		}

		cfg := model.GenerationConfig{
			Key:      accompanyKey,
			Scale:    accompanyScale,
			Velocity: accompanyVelocity,
		}
		if accompanyProgression != "" {
			for _, entry := range strings.Split(accompanyProgression, ",") {
				cfg.Progression = append(cfg.Progression, strings.TrimSpace(entry))
			}
		}

		combined, warnings, err := generate.Accompany(seq, cfg)
		if err != nil {
			return err
		}
		for _, warning := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", warning)
		}
		encoded, err := codec.Encode(combined)
		if err != nil {
			return err
		}
		if err := os.WriteFile(accompanyOut, encoded, 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %v bars with accompaniment to %v\n", combined.Bars(), accompanyOut)
		return nil
	},
}
