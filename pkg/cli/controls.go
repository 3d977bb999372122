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
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/benchkit/benchkit/pkg/instrument"
)

// ControlInfo is one connection parameter of a driver.
type ControlInfo struct {
	Driver   string                 `json:"driver" yaml:"driver"`
	Param    string                 `json:"param" yaml:"param"`
	Label    string                 `json:"label" yaml:"label"`
	Kind     instrument.ControlKind `json:"kind" yaml:"kind"`
	Default  any                    `json:"default,omitempty" yaml:"default,omitempty"`
	Choices  []any                  `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required bool                   `json:"required,omitempty" yaml:"required,omitempty"`
}

// ControlList implements serializer.Tabular.
type ControlList []ControlInfo

func (l ControlList) TableHeader() []string {
	return []string{"DRIVER", "PARAM", "LABEL", "KIND", "DEFAULT", "CHOICES", "REQUIRED"}
}

func (l ControlList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		def := ""
		if c.Default != nil {
			def = fmt.Sprint(c.Default)
		}
		choices := make([]string, 0, len(c.Choices))
		for _, ch := range c.Choices {
			choices = append(choices, fmt.Sprint(ch))
		}
		req := ""
		if c.Required {
			req = "yes"
		}
		rows = append(rows, []string{
			c.Driver, c.Param, c.Label, string(c.Kind), def, strings.Join(choices, ","), req,
		})
	}
	return rows
}

func controlsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "controls",
		EnableShellCompletion: true,
		Usage:                 "Show the connection parameters instrument drivers accept",
		ArgsUsage:             "[DRIVER...]",
		Description: `List the settings controls of the named drivers, or of every registered
driver when none is named: parameter name, label, kind, default, allowed
choices and whether it is required.`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			defer closeWriter(w)

			list, err := listControls(instrument.NewFromGlobal(), cmd.Args().Slice())
			if err != nil {
				return err
			}
			return w.Serialize(ctx, list)
		},
	}
}

func listControls(reg *instrument.Registry, drivers []string) (ControlList, error) {
	if len(drivers) == 0 {
		drivers = reg.Names()
	}

	var list ControlList
	for _, d := range drivers {
		controls, err := reg.Controls(d)
		if err != nil {
			return nil, err
		}
		for _, n := range controls.Names() {
			c := controls[n]
			list = append(list, ControlInfo{
				Driver:   d,
				Param:    n,
				Label:    c.Label,
				Kind:     c.Kind,
				Default:  c.Default,
				Choices:  c.Choices,
				Required: c.Required,
			})
		}
	}
	return list, nil
}
