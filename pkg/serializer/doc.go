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

// Package serializer provides encoding and decoding of bench data in multiple formats.
//
// # Supported Formats
//
// JSON:
//   - Machine-parseable, indented output
//   - Used for API responses and reports consumed by other tools
//
// YAML:
//   - Human-readable; the native format of bench configuration files
//   - gopkg.in/yaml.v3; unknown fields are rejected on decode
//
// Table:
//   - Terminal output. Values implementing Tabular render as rows;
//     anything else is flattened into FIELD/VALUE pairs
//   - Write-only
//
// # Writing
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "report.yaml")
//	defer w.Close()
//	if err := w.Serialize(ctx, report); err != nil {
//	    return err
//	}
//
// # Reading
//
// FromFile picks the format from the extension and accepts local paths as
// well as http(s) URLs:
//
//	cfg, err := serializer.FromFile[config.Config](ctx, "bench.yaml")
//
// # HTTP
//
// RespondJSON buffers the encoding before writing headers so a failed
// encode never produces a partial response:
//
//	serializer.RespondJSON(w, http.StatusOK, status)
package serializer
