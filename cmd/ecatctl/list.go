package main

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecat-io/dataplane-master/internal/app"
	"github.com/ecat-io/dataplane-master/internal/config"
)

var listCmdArgs struct {
	ConfigPath string
	SlavesGlob string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured domains and datagram pairs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	listCmd.Flags().StringVarP(&listCmdArgs.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	listCmd.Flags().StringVar(&listCmdArgs.SlavesGlob, "slaves", "*", "Glob filter over slave/domain names")
	listCmd.MarkFlagRequired("config")
}

func runList() error {
	cfg, err := config.Load(listCmdArgs.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	filter, err := glob.Compile(listCmdArgs.SlavesGlob)
	if err != nil {
		return fmt.Errorf("compiling --slaves glob %q: %w", listCmdArgs.SlavesGlob, err)
	}

	master, err := app.New(cfg, zap.NewNop().Sugar())
	if err != nil {
		return fmt.Errorf("constructing master: %w", err)
	}

	slaves, fsms := master.Slaves(), master.FSMs()
	for i, d := range master.Domains() {
		name := cfg.Domains[i].Name
		if !filter.Match(name) {
			continue
		}
		fmt.Printf("domain %d (%s): size=%d expected_wc=%d pairs=%d\n",
			d.Index, name, d.Size(), d.ExpectedWorkingCounter(), len(d.Pairs()))
		for j, p := range d.Pairs() {
			fmt.Printf("  pair %d: addr=0x%04x size=%d cmd=%s expected_wc=%d\n",
				j, p.Main.Address, len(p.SendBuffer), p.Main.Command, p.ExpectedWorkingCounter)
		}
		if i < len(slaves) && i < len(fsms) {
			fmt.Printf("  slave %q: al_state=%s fsm_state=%s\n",
				slaves[i].Config.Name, slaves[i].ALState.Base(), fsms[i].State())
		}
	}
	return nil
}
