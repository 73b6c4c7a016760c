// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CaptureConfig selects and tunes the device backend.
type CaptureConfig struct {
	Backend          string `mapstructure:"backend" validate:"required,oneof=ffmpeg pattern"`
	FFmpegPath       string `mapstructure:"ffmpeg_path" validate:"required"`
	InputFormat      string `mapstructure:"input_format" validate:"required"`
	ScreenFormat     string `mapstructure:"screen_format" validate:"required"`
	AudioFormat      string `mapstructure:"audio_format" validate:"required"`
	CameraDevice     string `mapstructure:"camera_device" validate:"required"`
	ScreenDevice     string `mapstructure:"screen_device" validate:"required"`
	MicrophoneDevice string `mapstructure:"microphone_device" validate:"required"`
	AcquireTimeoutMs int    `mapstructure:"acquire_timeout_ms" validate:"required,min=1"`
	AudioSampleRate  int    `mapstructure:"audio_sample_rate" validate:"required,min=8000"`
}

// CompositorConfig tunes the draw loop.
type CompositorConfig struct {
	RefreshRate int `mapstructure:"refresh_rate" validate:"required,min=1,max=240"`
}

// RecorderConfig tunes encoding and delivery.
type RecorderConfig struct {
	OutputDir          string `mapstructure:"output_dir"`
	ChunkSize          int    `mapstructure:"chunk_size" validate:"required,min=1024"`
	VideoBitrate       string `mapstructure:"video_bitrate" validate:"required"`
	DrainTimeoutMs     int    `mapstructure:"drain_timeout_ms" validate:"required,min=1"`
	DownloadTTLSeconds int    `mapstructure:"download_ttl_seconds" validate:"required,min=1"`
}

// Application config structure
type AppConfig struct {
	Name          string           `mapstructure:"service_name" validate:"required"`
	Version       string           `mapstructure:"version" validate:"required"`
	Host          string           `mapstructure:"host" validate:"required"`
	Port          int              `mapstructure:"port" validate:"required"`
	LogLevel      string           `mapstructure:"log_level" validate:"required"`
	LogPath       string           `mapstructure:"log_path"`
	InitialSource string           `mapstructure:"initial_source" validate:"required,oneof=camera screen"`
	Capture       CaptureConfig    `mapstructure:"capture" validate:"required"`
	Compositor    CompositorConfig `mapstructure:"compositor" validate:"required"`
	Recorder      RecorderConfig   `mapstructure:"recorder" validate:"required"`
}

func (c *CaptureConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMs) * time.Millisecond
}

func (c *RecorderConfig) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMs) * time.Millisecond
}

func (c *RecorderConfig) DownloadTTL() time.Duration {
	return time.Duration(c.DownloadTTLSeconds) * time.Second
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("Reading from env varaibles.")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "capture-studio")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("INITIAL_SOURCE", "camera")

	v.SetDefault("CAPTURE__BACKEND", "pattern")
	v.SetDefault("CAPTURE__FFMPEG_PATH", "ffmpeg")
	v.SetDefault("CAPTURE__INPUT_FORMAT", "v4l2")
	v.SetDefault("CAPTURE__SCREEN_FORMAT", "x11grab")
	v.SetDefault("CAPTURE__AUDIO_FORMAT", "pulse")
	v.SetDefault("CAPTURE__CAMERA_DEVICE", "/dev/video0")
	v.SetDefault("CAPTURE__SCREEN_DEVICE", ":0.0")
	v.SetDefault("CAPTURE__MICROPHONE_DEVICE", "default")
	v.SetDefault("CAPTURE__ACQUIRE_TIMEOUT_MS", 10000)
	v.SetDefault("CAPTURE__AUDIO_SAMPLE_RATE", 48000)

	v.SetDefault("COMPOSITOR__REFRESH_RATE", 30)

	v.SetDefault("RECORDER__OUTPUT_DIR", "")
	v.SetDefault("RECORDER__CHUNK_SIZE", 64*1024)
	v.SetDefault("RECORDER__VIDEO_BITRATE", "1M")
	v.SetDefault("RECORDER__DRAIN_TIMEOUT_MS", 5000)
	v.SetDefault("RECORDER__DOWNLOAD_TTL_SECONDS", 600)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
