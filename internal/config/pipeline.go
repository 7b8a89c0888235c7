package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvPipelineBlueprintPath = "REFRAME_PIPELINE_BLUEPRINT_PATH"
	EnvPipelineStepLimit     = "REFRAME_PIPELINE_STEP_LIMIT"
)

// PipelineConfig holds pipeline assembly settings. An empty BlueprintPath
// selects the compiled-in default blueprint; StepLimit zero defers to the
// runner's default ceiling.
type PipelineConfig struct {
	BlueprintPath string `toml:"blueprint_path"`
	StepLimit     int    `toml:"step_limit"`
}

// Finalize applies environment variable overrides and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.BlueprintPath != "" {
		c.BlueprintPath = overlay.BlueprintPath
	}
	if overlay.StepLimit != 0 {
		c.StepLimit = overlay.StepLimit
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineBlueprintPath); v != "" {
		c.BlueprintPath = v
	}
	if v := os.Getenv(EnvPipelineStepLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StepLimit = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.StepLimit < 0 {
		return fmt.Errorf("invalid step_limit: %d", c.StepLimit)
	}
	return nil
}
