// Command uhdfls inspects SD and HDF5 files through the uhdf package.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-uhdf/uhdf"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app is the state shared by every command of one invocation.
type app struct {
	stdout, stderr io.Writer

	configFile string
	cfg        config
	log        *logrus.Logger
}

// run executes the command line args and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, cfg: defaultConfig()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "uhdfls",
		Short: "Inspect SD (netCDF classic) and HDF5 files",
		Long: `uhdfls lists and reads SD (netCDF classic) and HDF5 files through
one API. Defaults may be set in a TOML file, see --config.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.startup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "configuration file (default $HOME/.uhdfls.toml)")
	pf.StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "output format: text, json, yaml or cbor")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error")

	root.AddCommand(newLsCmd(a), newStatsCmd(a), newDigestCmd(a), newDumpCmd(a), newAttrCmd(a))
	return root
}

// startup merges the config file under the flags and builds the logger.
func (a *app) startup(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd.Flags()); err != nil {
		return err
	}
	if _, ok := encoders[a.cfg.Output]; !ok && a.cfg.Output != "text" {
		return fmt.Errorf("unknown output format %q", a.cfg.Output)
	}
	level, err := logrus.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = logrus.New()
	a.log.SetOutput(a.stderr)
	a.log.SetLevel(level)
	return nil
}

func (a *app) open(path string) (*uhdf.File, error) {
	f, err := uhdf.Open(path, uhdf.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"path": path, "format": f.Format()}).Info("opened")
	return f, nil
}

// withDataset opens path, then the dataset name in it, and hands it to fn.
func (a *app) withDataset(path, name string, fn func(*uhdf.Dataset) error) error {
	f, err := a.open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	d, err := f.OpenDataset(name)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
