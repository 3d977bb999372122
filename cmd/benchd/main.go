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

package main

import (
	"log"

	"github.com/benchkit/benchkit/pkg/api"

	_ "github.com/benchkit/benchkit/pkg/instrument/daq"
	_ "github.com/benchkit/benchkit/pkg/instrument/loopback"
	_ "github.com/benchkit/benchkit/pkg/instrument/serial"
)

func main() {
	if err := api.ServeFromEnv(); err != nil {
		log.Fatal(err)
	}
}
