package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/jsphweid/midigen/player"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI ports",
	Long:  `Lists MIDI ports`,
	Run: func(cmd *cobra.Command, args []string) {
		defer midi.CloseDriver()
		ports := player.Ports()
		fmt.Println("in:")
		for _, p := range ports.In {
			fmt.Printf("  %v: %v\n", p.Number, p.Name)
		}
		fmt.Println("out:")
		for _, p := range ports.Out {
			fmt.Printf("  %v: %v\n", p.Number, p.Name)
		}
	},
}
