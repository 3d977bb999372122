// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Package runner drives a timed measurement loop.
//
// A Runner samples the measurements of a config.Source once at start and
// then every sample interval until the total duration elapses, reporting
// each step to a Callback on its own goroutine:
//
//	(0s, "Process starting")
//	(0s, "Process measurement: temp")
//	(0s, "Process measurement: pressure")
//	(1s, "Process measurement: temp")
//	...
//	(2.5s, "Process finished")
//
// The loop wakes once per poll quantum (50ms by default, WithPollQuantum)
// to compare elapsed time with the sample window and the deadline. The
// window restarts at the tick it fired on, so a slow callback delays later
// samples instead of bunching them up.
//
// # Lifecycle
//
//	r, err := runner.New(cfg, runner.LogCallback(slog.Default()))
//	if err != nil {
//	    return err
//	}
//	r.Start(ctx)    // no-op while running
//	...
//	r.Stop()        // cancels and waits; no events after it returns
//	err = r.Wait()  // error of the last run, if any
//
// A panic in the callback ends the run without "Process finished": IsRunning
// turns false early and Wait returns an INTERNAL error.
//
// # Callback Adapters
//
// Recorder keeps events for inspection, Channel hands them to another
// goroutine, LogCallback logs them and Multi fans out to several callbacks.
package runner
