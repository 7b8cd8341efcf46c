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

// Command brokerctl loads a network hierarchy from a YAML bootstrap file
// and drives a single service through its lifecycle, printing each
// derived status transition as it arrives. It exists to exercise
// pkg/broker end to end from outside a test binary, the way a small
// istioctl subcommand exercises the mesh control plane.
package main

import (
	"fmt"
	"os"

	"istio.io/pkg/log"

	"github.com/DataPlaneBroker/DPB-sub005/cmd/brokerctl/cmd"
)

func main() {
	if err := log.Configure(log.DefaultOptions()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.GetRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
