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

package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/serializer"
)

// Shared flags are constructed per command since urfave flags keep their
// parsed value.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "bench configuration file, YAML or JSON (path or http(s) URL)",
		Sources:  cli.EnvVars("BENCHKIT_CONFIG"),
		Required: true,
	}
}

// parseOutputFormat extracts and validates the output format from CLI flags.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: %s",
			outFormat, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return outFormat, nil
}

// newOutputWriter returns a serializer for --output, falling back to the
// command's writer when no file is given.
func newOutputWriter(cmd *cli.Command) (*serializer.Writer, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}
	if path := cmd.String("output"); path != "" {
		return serializer.NewFileWriterOrStdout(format, path), nil
	}
	return serializer.NewWriter(format, cmd.Root().Writer), nil
}

func closeWriter(w *serializer.Writer) {
	if err := w.Close(); err != nil {
		slog.Warn("failed to close serializer", "error", err)
	}
}

// parseParams turns repeated key=value flags into instrument parameters,
// typed by the driver's controls: numbers for number controls and numeric
// choices, booleans for bool controls, text otherwise. Keys the driver does
// not declare are decoded as YAML scalars.
func parseParams(pairs []string, controls instrument.Controls) (instrument.Params, error) {
	params := instrument.Params{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}

		ctl, declared := controls[key]
		v, err := coerce(raw, ctl, declared)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		params[key] = v
	}
	return params, nil
}

func coerce(raw string, ctl instrument.Control, declared bool) (any, error) {
	if !declared {
		var v any
		if yaml.Unmarshal([]byte(raw), &v) != nil || v == nil {
			return raw, nil
		}
		switch v.(type) {
		case map[string]any, []any:
			return raw, nil
		}
		return v, nil
	}

	switch ctl.Kind {
	case instrument.ControlNumber:
		return parseNumber(raw)
	case instrument.ControlBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil
	case instrument.ControlChoice:
		for _, c := range ctl.Choices {
			if _, isString := c.(string); !isString {
				if n, err := parseNumber(raw); err == nil {
					return n, nil
				}
				break
			}
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func parseNumber(raw string) (any, error) {
	if i, err := strconv.Atoi(raw); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("expected a number, got %q", raw)
	}
	return f, nil
}
