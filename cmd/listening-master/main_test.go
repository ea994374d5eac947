package main

import (
	"testing"

	"github.com/jssdwang06/listening-master/internal/remote"
)

func TestBuildCommand(t *testing.T) {
	cmd, err := buildCommand("seek", []string{"12.5"})
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if cmd.Cmd != remote.CmdSeek || cmd.Seconds == nil || *cmd.Seconds != 12.5 {
		t.Errorf("seek = %+v", cmd)
	}

	cmd, err = buildCommand("jump", nil)
	if err != nil || cmd.Seconds != nil {
		t.Errorf("bare jump = %+v, %v; want default distance", cmd, err)
	}

	cmd, err = buildCommand("speed", []string{"0.75"})
	if err != nil || cmd.Speed == nil || *cmd.Speed != 0.75 {
		t.Errorf("speed = %+v, %v", cmd, err)
	}

	cmd, err = buildCommand("submit", []string{"good", "morning"})
	if err != nil || cmd.Text != "good morning" {
		t.Errorf("submit = %+v, %v", cmd, err)
	}
}

func TestBuildCommandErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"seek", nil},
		{"seek", []string{"soon"}},
		{"speed", nil},
		{"submit", []string{" "}},
	} {
		if _, err := buildCommand(tc.name, tc.args); err == nil {
			t.Errorf("buildCommand(%s, %v) should fail", tc.name, tc.args)
		}
	}
}
