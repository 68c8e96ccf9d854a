package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// HoopZoneConfig describes one basket's trigger and resolution regions
// in image coordinates, each as [x1, y1, x2, y2].
type HoopZoneConfig struct {
	Zone [4]float64 `json:"zone"`
	Net  [4]float64 `json:"net"`
}

// TuningConfig represents the root configuration for tuning parameters.
// All fields are optional pointers so a partial JSON file overrides only
// what it names; the Get* accessors supply calibrated defaults. The
// numeric defaults are calibration starting points, not measured truths.
type TuningConfig struct {
	// Possession params
	PossessionMaxDistancePx  *float64 `json:"possession_max_distance_px,omitempty"`
	PossessionDisplaceFrames *int     `json:"possession_displace_frames,omitempty"`
	PossessionCarryGapFrames *int     `json:"possession_carry_gap_frames,omitempty"`

	// Event detector params
	PassMaxGapFrames             *int             `json:"pass_max_gap_frames,omitempty"`
	ShotLookbackFrames           *int             `json:"shot_lookback_frames,omitempty"`
	ShotUpwardDisplacementPx     *float64         `json:"shot_upward_displacement_px,omitempty"`
	ShotCooldownFrames           *int             `json:"shot_cooldown_frames,omitempty"`
	ShotTimeoutFrames            *int             `json:"shot_timeout_frames,omitempty"`
	ShotPossessionLookbackFrames *int             `json:"shot_possession_lookback_frames,omitempty"`
	HoopZones                    []HoopZoneConfig `json:"hoop_zones,omitempty"`

	// Homography params
	KeypointMinConfidence       *float64 `json:"keypoint_min_confidence,omitempty"`
	KeypointProportionTolerance *float64 `json:"keypoint_proportion_tolerance,omitempty"`
	MinValidKeypoints           *int     `json:"min_valid_keypoints,omitempty"`
	ResidualTrimMeters          *float64 `json:"homography_residual_trim_m,omitempty"`
	CollinearityMinSpreadPx     *float64 `json:"collinearity_min_spread_px,omitempty"`
	CourtBoundsSlackMeters      *float64 `json:"court_bounds_slack_m,omitempty"`

	// Ball trajectory conditioning params
	BallMaxJumpPxPerFrame  *float64 `json:"ball_max_jump_px_per_frame,omitempty"`
	BallMaxInterpGapFrames *int     `json:"ball_max_interp_gap_frames,omitempty"`

	// Kinematics params
	FrameRate          *float64 `json:"frame_rate,omitempty"`
	MaxPlayerSpeedKmh  *float64 `json:"max_player_speed_kmh,omitempty"`
	SpeedWindowFrames  *int     `json:"speed_window_frames,omitempty"`
	MaxBridgeGapFrames *int     `json:"max_bridge_gap_frames,omitempty"`

	// Trajectory store params
	LookbackDepthFrames *int `json:"lookback_depth_frames,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Every Get* accessor then yields its built-in default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the working directory.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/<pkg>/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.KeypointMinConfidence != nil {
		if *c.KeypointMinConfidence < 0 || *c.KeypointMinConfidence > 1 {
			return fmt.Errorf("keypoint_min_confidence must be between 0 and 1, got %f", *c.KeypointMinConfidence)
		}
	}
	if c.KeypointProportionTolerance != nil && *c.KeypointProportionTolerance <= 0 {
		return fmt.Errorf("keypoint_proportion_tolerance must be positive, got %f", *c.KeypointProportionTolerance)
	}
	if c.MinValidKeypoints != nil && *c.MinValidKeypoints < 4 {
		return fmt.Errorf("min_valid_keypoints must be at least 4, got %d", *c.MinValidKeypoints)
	}
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}
	if c.MaxPlayerSpeedKmh != nil && *c.MaxPlayerSpeedKmh <= 0 {
		return fmt.Errorf("max_player_speed_kmh must be positive, got %f", *c.MaxPlayerSpeedKmh)
	}
	if c.SpeedWindowFrames != nil && *c.SpeedWindowFrames < 1 {
		return fmt.Errorf("speed_window_frames must be at least 1, got %d", *c.SpeedWindowFrames)
	}
	if c.PossessionMaxDistancePx != nil && *c.PossessionMaxDistancePx <= 0 {
		return fmt.Errorf("possession_max_distance_px must be positive, got %f", *c.PossessionMaxDistancePx)
	}
	if c.PossessionDisplaceFrames != nil && *c.PossessionDisplaceFrames < 1 {
		return fmt.Errorf("possession_displace_frames must be at least 1, got %d", *c.PossessionDisplaceFrames)
	}
	for i, hz := range c.HoopZones {
		if hz.Zone[2] <= hz.Zone[0] || hz.Zone[3] <= hz.Zone[1] {
			return fmt.Errorf("hoop_zones[%d].zone is degenerate", i)
		}
		if hz.Net[2] <= hz.Net[0] || hz.Net[3] <= hz.Net[1] {
			return fmt.Errorf("hoop_zones[%d].net is degenerate", i)
		}
	}
	return nil
}

// GetPossessionMaxDistancePx returns the maximum ball-to-player
// distance (pixels) for possession assignment.
func (c *TuningConfig) GetPossessionMaxDistancePx() float64 {
	if c.PossessionMaxDistancePx == nil {
		return 70.0
	}
	return *c.PossessionMaxDistancePx
}

// GetPossessionDisplaceFrames returns the consecutive-frame count a
// closer candidate needs before displacing the current holder.
func (c *TuningConfig) GetPossessionDisplaceFrames() int {
	if c.PossessionDisplaceFrames == nil {
		return 5
	}
	return *c.PossessionDisplaceFrames
}

// GetPossessionCarryGapFrames returns how long possession is carried
// forward while the ball is undetected.
func (c *TuningConfig) GetPossessionCarryGapFrames() int {
	if c.PossessionCarryGapFrames == nil {
		return 10
	}
	return *c.PossessionCarryGapFrames
}

// GetPassMaxGapFrames returns the maximum release-to-gain gap for a
// possession change to classify as a pass or interception.
func (c *TuningConfig) GetPassMaxGapFrames() int {
	if c.PassMaxGapFrames == nil {
		return 15
	}
	return *c.PassMaxGapFrames
}

// GetShotLookbackFrames returns the window over which ball upward
// displacement is measured for the shot trigger.
func (c *TuningConfig) GetShotLookbackFrames() int {
	if c.ShotLookbackFrames == nil {
		return 8
	}
	return *c.ShotLookbackFrames
}

// GetShotUpwardDisplacementPx returns the minimum upward image
// displacement that triggers a shot attempt.
func (c *TuningConfig) GetShotUpwardDisplacementPx() float64 {
	if c.ShotUpwardDisplacementPx == nil {
		return 40.0
	}
	return *c.ShotUpwardDisplacementPx
}

// GetShotCooldownFrames returns the minimum gap between two shot events.
func (c *TuningConfig) GetShotCooldownFrames() int {
	if c.ShotCooldownFrames == nil {
		return 30
	}
	return *c.ShotCooldownFrames
}

// GetShotTimeoutFrames returns the frame span after which an unresolved
// ball-in-air attempt is closed out as a miss.
func (c *TuningConfig) GetShotTimeoutFrames() int {
	if c.ShotTimeoutFrames == nil {
		return 30
	}
	return *c.ShotTimeoutFrames
}

// GetShotPossessionLookbackFrames returns how far back to search for
// the most recent possessor when attributing a shot.
func (c *TuningConfig) GetShotPossessionLookbackFrames() int {
	if c.ShotPossessionLookbackFrames == nil {
		return 15
	}
	return *c.ShotPossessionLookbackFrames
}

// GetHoopZones returns the configured hoop zones. May be empty when no
// zones are calibrated, in which case shots resolve by timeout only.
func (c *TuningConfig) GetHoopZones() []HoopZoneConfig {
	return c.HoopZones
}

// GetKeypointMinConfidence returns the confidence floor below which a
// keypoint slot is treated as invalid.
func (c *TuningConfig) GetKeypointMinConfidence() float64 {
	if c.KeypointMinConfidence == nil {
		return 0.5
	}
	return *c.KeypointMinConfidence
}

// GetKeypointProportionTolerance returns the relative error margin for
// the proportional-distance consistency check.
func (c *TuningConfig) GetKeypointProportionTolerance() float64 {
	if c.KeypointProportionTolerance == nil {
		return 0.8
	}
	return *c.KeypointProportionTolerance
}

// GetMinValidKeypoints returns the minimum valid keypoint count for
// homography estimation.
func (c *TuningConfig) GetMinValidKeypoints() int {
	if c.MinValidKeypoints == nil {
		return 4
	}
	return *c.MinValidKeypoints
}

// GetResidualTrimMeters returns the court-plane reprojection residual
// above which a correspondence is dropped before the re-fit.
func (c *TuningConfig) GetResidualTrimMeters() float64 {
	if c.ResidualTrimMeters == nil {
		return 1.0
	}
	return *c.ResidualTrimMeters
}

// GetCollinearityMinSpreadPx returns the minimum minor-axis spread of
// the accepted image points; configurations flatter than this are
// rejected as near-collinear.
func (c *TuningConfig) GetCollinearityMinSpreadPx() float64 {
	if c.CollinearityMinSpreadPx == nil {
		return 8.0
	}
	return *c.CollinearityMinSpreadPx
}

// GetCourtBoundsSlackMeters returns how far beyond the court lines a
// projected position may fall before it is discarded.
func (c *TuningConfig) GetCourtBoundsSlackMeters() float64 {
	if c.CourtBoundsSlackMeters == nil {
		return 0.5
	}
	return *c.CourtBoundsSlackMeters
}

// GetBallMaxJumpPxPerFrame returns the per-frame-gap distance above
// which a ball detection is rejected as implausible.
func (c *TuningConfig) GetBallMaxJumpPxPerFrame() float64 {
	if c.BallMaxJumpPxPerFrame == nil {
		return 25.0
	}
	return *c.BallMaxJumpPxPerFrame
}

// GetBallMaxInterpGapFrames returns the longest ball-detection gap that
// is bridged by linear interpolation.
func (c *TuningConfig) GetBallMaxInterpGapFrames() int {
	if c.BallMaxInterpGapFrames == nil {
		return 10
	}
	return *c.BallMaxInterpGapFrames
}

// GetFrameRate returns the video frame rate in frames per second.
func (c *TuningConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 30.0
	}
	return *c.FrameRate
}

// GetMaxPlayerSpeedKmh returns the physical speed cap; transitions
// implying a faster speed are flagged as anomalies.
func (c *TuningConfig) GetMaxPlayerSpeedKmh() float64 {
	if c.MaxPlayerSpeedKmh == nil {
		return 36.0
	}
	return *c.MaxPlayerSpeedKmh
}

// GetSpeedWindowFrames returns the rolling window length for speed
// smoothing.
func (c *TuningConfig) GetSpeedWindowFrames() int {
	if c.SpeedWindowFrames == nil {
		return 5
	}
	return *c.SpeedWindowFrames
}

// GetMaxBridgeGapFrames returns the longest tracking gap bridged by
// holding position; longer gaps reset the player's accumulator anchor.
func (c *TuningConfig) GetMaxBridgeGapFrames() int {
	if c.MaxBridgeGapFrames == nil {
		return 10
	}
	return *c.MaxBridgeGapFrames
}

// GetLookbackDepthFrames returns the bounded per-track lookback depth
// kept by the trajectory store.
func (c *TuningConfig) GetLookbackDepthFrames() int {
	if c.LookbackDepthFrames == nil {
		return 30
	}
	return *c.LookbackDepthFrames
}
