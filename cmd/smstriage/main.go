/*
ASTriage: Android SMS triage and acquisition tool

Copyright (c) 2023 Dan O'Day <d@4n68r.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package main for the live-device SMS triage pipeline.
// This tool extracts SMS/MMS history from an attached Android device over
// adb, flags messages containing links, and writes timeline-ready output.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/danzek/android-sms-triage/adb"
	"github.com/danzek/android-sms-triage/indicators"
	"github.com/danzek/android-sms-triage/smstriage"
)

// Config carries the settings for one acquisition run. Values layer in
// ascending precedence: defaults, environment, config file, command line.
type Config struct {
	ADBPath   string `mapstructure:"adb_path" validate:"required"`
	Serial    string `mapstructure:"serial"`
	OutputDir string `mapstructure:"output_dir" validate:"required"`
	IOCFile   string `mapstructure:"ioc_file"`
	SQLite    bool   `mapstructure:"sqlite"`
	LogLevel  string `mapstructure:"log_level" validate:"required|in:trace,debug,info,warn,error"`
}

func loadConfig() (*Config, error) {
	pConfigFile := flag.String("config", "", "Path to optional YAML config file")
	pOutputDirectory := flag.String("d", ".", "Directory path for acquisition output (current working directory is default)")
	pADBPath := flag.String("adb", "", "Path to the adb executable (adb on PATH is default)")
	pSerial := flag.String("s", "", "Device serial (only attached device is default)")
	pIOCFile := flag.String("i", "", "Path to newline-delimited indicator domain list")
	pSQLite := flag.Bool("sqlite", false, "Also write a messages.db SQLite evidence database")
	pLogLevel := flag.String("level", "", "Log level (trace|debug|info|warn|error)")
	pDebug := flag.Bool("debug", false, "Shorthand for -level debug")
	flag.Parse()

	viper.SetDefault("adb_path", "adb")
	viper.SetDefault("output_dir", ".")
	viper.SetDefault("log_level", "info")

	viper.BindEnv("adb_path", "SMSTRIAGE_ADB_PATH")
	viper.BindEnv("serial", "SMSTRIAGE_SERIAL")
	viper.BindEnv("ioc_file", "SMSTRIAGE_IOC_FILE")
	viper.BindEnv("log_level", "SMSTRIAGE_LOG_LEVEL")

	if *pConfigFile != "" {
		viper.SetConfigFile(*pConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Explicitly set flags override everything else.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d":
			viper.Set("output_dir", *pOutputDirectory)
		case "adb":
			viper.Set("adb_path", *pADBPath)
		case "s":
			viper.Set("serial", *pSerial)
		case "i":
			viper.Set("ioc_file", *pIOCFile)
		case "sqlite":
			viper.Set("sqlite", *pSQLite)
		case "level":
			viper.Set("log_level", *pLogLevel)
		case "debug":
			if *pDebug {
				viper.Set("log_level", "debug")
			}
		}
	})

	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	v := validate.Struct(&conf)
	if !v.Validate() {
		return nil, v.Errors
	}
	return &conf, nil
}

func main() {
	// time program execution
	start := time.Now()

	conf, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	runID := uuid.New().String()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("run_id", runID).Logger()

	// validate output directory
	if outputDirInfo, err := os.Stat(conf.OutputDir); err != nil || !outputDirInfo.IsDir() {
		fmt.Fprintf(os.Stderr, "Invalid output directory path: %s\n", conf.OutputDir)
		os.Exit(1)
	}
	fmt.Printf("Output directory set to %s\n", conf.OutputDir)
	fmt.Printf("Acquisition run %s\n", runID)

	var matcher *indicators.Indicators
	if conf.IOCFile != "" {
		matcher, err = indicators.LoadDomains(conf.IOCFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", conf.IOCFile).Msg("loading indicator domains failed")
		}
		logger.Info().Int("domains", matcher.Len()).Str("file", conf.IOCFile).Msg("loaded indicator domains")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := adb.NewClient(conf.ADBPath, conf.Serial)
	extractor := smstriage.NewExtractor(client, logger)
	res := extractor.Run(ctx)

	if matcher != nil {
		res.CheckIndicators(matcher)
	}

	if err := smstriage.GenerateMessageOutput(res, conf.OutputDir); err != nil {
		logger.Fatal().Err(err).Msg("writing message output failed")
	}
	if matcher != nil {
		if err := smstriage.GenerateDetectedOutput(res, conf.OutputDir); err != nil {
			logger.Fatal().Err(err).Msg("writing detected output failed")
		}
	}
	if conf.SQLite {
		dbPath := filepath.Join(conf.OutputDir, "messages.db")
		if err := smstriage.GenerateSQLiteOutput(res.Records, dbPath); err != nil {
			logger.Fatal().Err(err).Str("path", dbPath).Msg("writing SQLite evidence database failed")
		}
	}

	fmt.Printf("%-10d SMS messages with links extracted\n", len(res.Records))
	if matcher != nil {
		fmt.Printf("%-10d messages matched indicator domains\n", len(res.Detected))
	}
	if len(res.Diagnostics) > 0 {
		fmt.Printf("%-10d diagnostics recorded (see log output)\n", len(res.Diagnostics))
	}

	// print completion messages
	fmt.Printf("\nCompleted in %.2f seconds.\n", time.Since(start).Seconds())
	fmt.Printf("Output saved to %s\n", conf.OutputDir)
}
