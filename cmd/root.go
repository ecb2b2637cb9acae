package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "midigen",
	Short: "Algorithmic MIDI generation",
	Long:  `Generates melodies, chord progressions and rhythm as standard MIDI, served over HTTP or played to a live device.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
