// Copyright 2024 The meshroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// xdsconfgen renders the service-configuration document the xds resolver
// generates for a route-configuration update. It is a development tool
// for inspecting what a given RDS payload turns into before pointing a
// channel at a control plane.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshroute/xdsresolver/internal/allocator"
	"github.com/meshroute/xdsresolver/routeconfig"
	"github.com/meshroute/xdsresolver/serviceconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "xdsconfgen [update.json]",
		Short: "Render the service config for a route-configuration update",
		Long: `Render the service-configuration document the xds resolver generates
for a route-configuration update.

The update is read from the given file, or from stdin when no file is
given, in the JSON form accepted by the routeconfig package:

  {"routes":[
    {"prefix":"/svc.S/", "cluster":"C"},
    {"path":"/svc.S/M",
     "weightedClusters":[{"name":"A","weight":30},{"name":"B","weight":70}]}
  ]}`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			output, err := render(input, compact)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "emit compact JSON on one line")
	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

func render(input []byte, compact bool) (string, error) {
	update, err := routeconfig.ParseJSON(input)
	if err != nil {
		return "", err
	}
	state := allocator.Update(allocator.State{}, update.Routes)
	doc, err := serviceconfig.Build(update, state.Name)
	if err != nil {
		return "", err
	}
	data, err := doc.Marshal()
	if err != nil {
		return "", err
	}
	if _, err := serviceconfig.Parse(data); err != nil {
		return "", fmt.Errorf("generated config failed validation: %w", err)
	}
	if compact {
		return string(data), nil
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		return "", err
	}
	return indented.String(), nil
}
