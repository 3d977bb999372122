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

// Package config describes what a bench run samples and for how long.
//
// The runner consumes the Source interface; Config is the file-backed
// implementation. Measurements are identified by their KeyName field and
// are sampled in the order they are listed. A measurement may name an
// instrument entry and a command, in which case a session sends that
// command on every sample and records the response as the reading.
//
//	cfg, err := config.Load(ctx, "bench.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.SampleInterval(), cfg.MeasurementNames())
//
// Durations are written as Go duration strings ("250ms", "2.5s"); bare
// numbers are seconds.
package config
