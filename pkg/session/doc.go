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

// Package session runs a bench configuration against instruments.
//
// A Session opens every instrument entry of a config.Config through the
// instrument registry, drives a runner.Runner, and on each measurement
// event sends that measurement's command to its instrument. Commands are
// rate limited per instrument. Responses, latencies and failures are
// collected into a Report:
//
//	rep, err := session.Run(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(rep.Status, len(rep.Readings))
//
// A failed command is recorded on its reading and the run continues;
// instruments stay usable after CONNECTION and TIMEOUT errors. Close
// releases every instrument and reports all close failures.
package session
