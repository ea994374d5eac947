package config

import (
	"errors"
	"fmt"
	"os/exec"
)

// Validate checks the loaded configuration. Warnings are non-fatal (a
// missing binary only disables the feature that needs it); err is returned
// for values the player cannot run with.
func (c *Config) Validate() (warnings []string, err error) {
	if c == nil {
		return nil, errors.New("config is nil")
	}

	for _, bin := range []struct{ name, path string }{
		{"ffmpeg", c.FFmpegPath},
		{"ffprobe", c.FFprobePath},
		{"ffplay", c.FFplayPath},
	} {
		if _, lerr := exec.LookPath(bin.path); lerr != nil {
			warnings = append(warnings, fmt.Sprintf("%s not found at %q", bin.name, bin.path))
		}
	}

	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ResampleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("resample_timeout must be positive, got %s", c.ResampleTimeout))
	}
	if c.FinishEpsilon < 0 {
		errs = append(errs, fmt.Errorf("finish_epsilon must not be negative, got %s", c.FinishEpsilon))
	}
	if c.JumpSeconds <= 0 {
		errs = append(errs, fmt.Errorf("jump_seconds must be positive, got %v", c.JumpSeconds))
	}
	if c.CorrectThreshold <= 0 || c.CorrectThreshold > 1 {
		errs = append(errs, fmt.Errorf("correct_threshold must be in (0, 1], got %v", c.CorrectThreshold))
	}

	if len(c.Speeds) == 0 {
		errs = append(errs, errors.New("speeds must not be empty"))
	}
	for _, s := range c.Speeds {
		if s < 0.25 || s > 4 {
			errs = append(errs, fmt.Errorf("speed %v outside [0.25, 4]", s))
		}
	}
	if len(c.Speeds) > 0 && !c.SpeedAllowed(c.DefaultSpeed) {
		errs = append(errs, fmt.Errorf("default_speed %v is not in speeds", c.DefaultSpeed))
	}

	return warnings, errors.Join(errs...)
}
