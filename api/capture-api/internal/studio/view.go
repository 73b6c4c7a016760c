// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_studio

import (
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
)

type Action string

const (
	ActionStart        Action = "start"
	ActionStop         Action = "stop"
	ActionPause        Action = "pause"
	ActionResume       Action = "resume"
	ActionTogglePause  Action = "toggle-pause"
	ActionSwitchSource Action = "switch-source"
)

// Control is one button offered to the user.
type Control struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
}

// View is what the UI renders. With Error set nothing else is shown.
type View struct {
	Error           string                      `json:"error,omitempty"`
	Source          internal_type.SourceKind    `json:"source"`
	SourceReady     bool                        `json:"sourceReady"`
	MicrophoneReady bool                        `json:"microphoneReady"`
	State           internal_type.RecorderState `json:"state"`
	Recording       bool                        `json:"recording"`
	Paused          bool                        `json:"paused"`
	Draining        bool                        `json:"draining"`
	Elapsed         string                      `json:"elapsed"`
	RecordingLabel  string                      `json:"recordingLabel,omitempty"`
	Controls        []Control                   `json:"controls"`
}

func switchControl(kind internal_type.SourceKind) Control {
	if kind == internal_type.SourceScreen {
		return Control{Action: ActionSwitchSource, Label: "Switch to Cam"}
	}
	return Control{Action: ActionSwitchSource, Label: "Switch to Screen"}
}

// controlsFor lists the buttons for a recorder state, in display order.
func controlsFor(state internal_type.RecorderState, kind internal_type.SourceKind) []Control {
	switch state {
	case internal_type.RecorderRecording:
		return []Control{
			switchControl(kind),
			{Action: ActionStop, Label: "Stop Recording"},
			{Action: ActionTogglePause, Label: "Pause"},
		}
	case internal_type.RecorderPaused:
		return []Control{
			switchControl(kind),
			{Action: ActionStop, Label: "Stop Recording"},
			{Action: ActionTogglePause, Label: "Resume"},
		}
	default:
		return []Control{
			{Action: ActionStart, Label: "Start Recording"},
			switchControl(kind),
		}
	}
}

func (s *Studio) buildView() *View {
	if s.err != nil {
		return &View{
			Error:    s.err.Error(),
			Source:   s.kind,
			State:    s.recorder.State(),
			Elapsed:  s.timer.Display(),
			Controls: []Control{},
		}
	}
	state := s.recorder.State()
	v := &View{
		Source:          s.kind,
		SourceReady:     s.video != nil,
		MicrophoneReady: s.audio != nil,
		State:           state,
		Recording:       state != internal_type.RecorderIdle,
		Paused:          state == internal_type.RecorderPaused,
		Draining:        s.recorder.Draining(),
		Elapsed:         s.timer.Display(),
		Controls:        controlsFor(state, s.kind),
	}
	if v.Recording {
		v.RecordingLabel = "Recording: " + v.Elapsed
	}
	return v
}
