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

// Package instrument defines the uniform contract for talking to a physical
// instrument and the registry that selects a driver for discovered devices.
//
// # Core Interface
//
//	type Instrument interface {
//	    IsMatch(candidate Params) bool
//	    SendCommand(ctx context.Context, req Request) (*Response, error)
//	    Close() error
//	    SettingsControls() Controls
//	}
//
// Every variant (serial port, loopback simulator, DAQ) implements all four
// methods; the compiler enforces the method set and Register rejects a
// variant that leaves out its Open function or its settings controls.
//
// # Matching
//
// A variant declares the connection parameters that identify its devices.
// A discovered candidate matches when every declared key is present with an
// equal raw value; extra candidate keys do not matter:
//
//	m := instrument.NewMatcher(instrument.Params{"port": "COM3"})
//	m.IsMatch(instrument.Params{"port": "COM3", "baud": 9600}) // true
//	m.IsMatch(instrument.Params{"port": "COM4"})               // false
//	m.IsMatch(instrument.Params{"baud": 9600})                 // false
//
// # Command Exchange
//
// Exchange implements the command/response rules once for all variants:
// the pre-response hook runs before blocking, the post-response hook runs
// after the response or its absence, and a missed response window becomes
// a TIMEOUT error. An unreachable transport is a CONNECTION error. Both only
// fail the in-flight call.
//
// # Lifecycle
//
// Registry.Open returns a Handle. Close it on every exit path, or use Use
// which does so and propagates close failures:
//
//	err := instrument.Use(ctx, reg, "serial", instrument.Params{"port": "/dev/ttyUSB0"},
//	    func(ctx context.Context, inst instrument.Instrument) error {
//	        resp, err := inst.SendCommand(ctx, instrument.Request{
//	            Command:        []byte("*IDN?"),
//	            ExpectResponse: true,
//	        })
//	        if err != nil {
//	            return err
//	        }
//	        fmt.Println(resp)
//	        return nil
//	    })
//
// A Handle that is dropped without Close is released by a runtime cleanup
// as a safety net; failures on that path are logged at debug level and
// never surface.
package instrument
