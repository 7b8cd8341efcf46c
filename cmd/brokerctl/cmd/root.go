// Copyright DataPlaneBroker Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd holds brokerctl's cobra command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

// GetRootCmd builds brokerctl's command tree.
func GetRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "brokerctl",
		Short: "Drive a dataplane broker topology from the command line",
		Long: `
brokerctl loads a switch/aggregator/trunk topology from a YAML bootstrap
file and drives services through it, the way a caller embedding
pkg/broker would. It is a demonstration harness, not a production
control surface.`,
		SilenceUsage: true,
	}

	root.AddCommand(runCommand())
	root.AddCommand(modelCommand())
	root.AddCommand(serveCommand())

	return root
}
