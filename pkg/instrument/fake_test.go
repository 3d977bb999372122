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

package instrument

import (
	"context"
	"sync/atomic"
)

// fakeInstrument echoes commands and counts Close calls.
type fakeInstrument struct {
	Matcher
	closes   atomic.Int32
	closeErr error
	opened   Params
}

func (f *fakeInstrument) SendCommand(ctx context.Context, req Request) (*Response, error) {
	var data []byte
	return Exchange(ctx, req, 0,
		func(_ context.Context, cmd []byte) error {
			data = append([]byte(nil), cmd...)
			return nil
		},
		func(context.Context) ([]byte, error) { return data, nil })
}

func (f *fakeInstrument) Close() error {
	f.closes.Add(1)
	return f.closeErr
}

func (f *fakeInstrument) SettingsControls() Controls {
	return fakeControls()
}

func fakeControls() Controls {
	return Controls{
		"port":      {Kind: ControlText, Required: true},
		"baud_rate": {Kind: ControlChoice, Default: 9600, Choices: []any{9600, 115200}},
	}
}

func fakeVariant(name string, inst *fakeInstrument) Variant {
	return Variant{
		Name:        name,
		Description: "test variant",
		MatchParams: Params{"vid": "2341"},
		Controls:    fakeControls(),
		Open: func(_ context.Context, params Params) (Instrument, error) {
			inst.opened = params
			return inst, nil
		},
	}
}
