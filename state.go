// Copyright 2025 The Thermwire Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermwire

// state identifies the next action the engine will take. The zero value is a
// sentinel for a Monitor that never went through New.
type state uint8

const (
	stateUninitialized state = iota
	stateAcquireROM
	stateAcquireScratchpad
	stateProgramScratchpad
	stateVerifyConfig
	stateBeginConversion
	stateAwaitConversion
	stateCollectResult
	stateReportOutcome
	stateFaulted
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateAcquireROM:
		return "acquire-rom"
	case stateAcquireScratchpad:
		return "acquire-scratchpad"
	case stateProgramScratchpad:
		return "program-scratchpad"
	case stateVerifyConfig:
		return "verify-config"
	case stateBeginConversion:
		return "begin-conversion"
	case stateAwaitConversion:
		return "await-conversion"
	case stateCollectResult:
		return "collect-result"
	case stateReportOutcome:
		return "report-outcome"
	case stateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
