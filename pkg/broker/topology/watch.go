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

package topology

import (
	"github.com/fsnotify/fsnotify"
)

// Watch notifies onChange every time the bootstrap file at path is
// written. It does not re-apply the file itself — the core never owns a
// running network's wholesale replacement, only incremental addTerminal
// /defineLabelRange/provideBandwidth-style calls — so the caller decides
// what, if anything, to do with a reload signal.
// Watch returns a stop function that closes the underlying watcher.
func Watch(path string, onChange func()) (stop func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					scope.Infof("topology file %q changed: %s", path, event.Op)
					onChange()
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				scope.Warnf("topology watch error on %q: %v", path, werr)
			}
		}
	}()

	return w.Close, nil
}
