/******************************************************************************
*
*  Copyright 2018 Stefan Majewsky <majewsky@gmx.net>
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/majewsky/swiftblob"
	"github.com/majewsky/swiftblob/config"
	"github.com/majewsky/swiftblob/profiler"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCommand(os.Stdout).ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	debug      bool
	jobs       int
	outputPath string

	viper  *viper.Viper
	logger *logrus.Logger
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{
		viper:  config.New(),
		logger: logrus.New(),
	}

	root := &cobra.Command{
		Use:   "swiftblob",
		Short: "Store file blobs in OpenStack Swift",
		Long: `swiftblob stores file blobs in OpenStack Swift, using the same handles and
container layout as the storage engine library.

Settings are read from the config file given with --config, and from
environment variables like SWIFTBLOB_STORAGE_SWIFT_KEY.`,
		Version:           swiftblob.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.prepare,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every Swift request and response")

	put := &cobra.Command{
		Use:   "put FILE...",
		Short: "Upload files and print their handles",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runPut,
	}
	put.Flags().IntVarP(&a.jobs, "jobs", "j", 4, "number of parallel uploads")

	get := &cobra.Command{
		Use:   "get HANDLE",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runGet,
	}
	get.Flags().StringVarP(&a.outputPath, "output", "o", "", "write to this file instead of stdout")

	root.AddCommand(put, get,
		&cobra.Command{
			Use:   "rm HANDLE...",
			Short: "Delete files",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.runRemove,
		},
		&cobra.Command{
			Use:   "locate HANDLE",
			Short: "Print the container and object name for a handle",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runLocate,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the configuration and try to authenticate",
			Args:  cobra.NoArgs,
			RunE:  a.runCheck,
		},
	)
	return root
}

func (a *app) prepare(cmd *cobra.Command, args []string) error {
	a.logger.SetOutput(cmd.ErrOrStderr())
	if a.debug {
		a.logger.SetLevel(logrus.DebugLevel)
		a.viper.Set(swiftblob.SettingDebug, true)
	}
	if a.configPath != "" {
		a.viper.SetConfigFile(a.configPath)
		err := a.viper.ReadInConfig()
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", a.configPath, err)
		}
	}
	return nil
}

func (a *app) engine() *swiftblob.Engine {
	e := swiftblob.NewEngine(config.Source{Viper: a.viper})
	e.Logger = a.logger
	if a.debug {
		e.Profiler = profiler.Logging{Logger: a.logger}
	}
	return e
}

func (a *app) runPut(cmd *cobra.Command, args []string) error {
	if a.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", a.jobs)
	}
	e := a.engine()
	if !e.CanWrite() {
		return fmt.Errorf("Swift storage is disabled or not fully configured (run `%s check` for details)", cmd.Root().Name())
	}

	handles := make([]string, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.jobs)
	for idx, path := range args {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			handle, err := e.WriteFile(ctx, data)
			if err != nil {
				return fmt.Errorf("cannot upload %s: %w", path, err)
			}
			a.logger.WithFields(logrus.Fields{"file": path, "handle": handle}).Debug("uploaded")
			handles[idx] = handle
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return err
	}

	for idx, path := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", handles[idx], path)
	}
	return nil
}

func (a *app) runGet(cmd *cobra.Command, args []string) error {
	data, err := a.engine().ReadFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if a.outputPath == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	err = os.MkdirAll(filepath.Dir(a.outputPath), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(a.outputPath, data, 0644)
}

func (a *app) runRemove(cmd *cobra.Command, args []string) error {
	e := a.engine()
	for _, handle := range args {
		err := e.DeleteFile(cmd.Context(), handle)
		if err != nil {
			return fmt.Errorf("cannot delete %s: %w", handle, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", handle)
	}
	return nil
}

func (a *app) runLocate(cmd *cobra.Command, args []string) error {
	handle := args[0]
	if handle == "" {
		return swiftblob.ErrEmptyHandle
	}
	if !swiftblob.ValidHandle(handle) {
		a.logger.WithField("handle", handle).Warn("handle was not generated by swiftblob")
	}
	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), swiftblob.ObjectPath(cfg.ContainerPrefix, handle))
	return nil
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	e := a.engine()
	c, err := e.Client()
	if err != nil {
		return err
	}
	_, err = c.Token(cmd.Context())
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "authentication: ok")
	if e.CanWrite() {
		fmt.Fprintln(out, "writes: enabled")
	} else {
		fmt.Fprintln(out, "writes: disabled")
	}
	return nil
}
