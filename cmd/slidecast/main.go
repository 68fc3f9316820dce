// Command slidecast converts a PowerPoint deck into per-slide artifacts:
// a PNG render, a speaker-notes text file, and a synthesized audio
// narration, plus an assembled deck video and optional PDF handout.
//
// Usage:
//
//	slidecast [flags] <presentation.pptx>
//
// The process exits 0 only when every artifact was produced; any fatal
// condition or per-slide failure yields a non-zero exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/LesterThomas/presentation-generator/internal/config"
	"github.com/LesterThomas/presentation-generator/internal/handout"
	"github.com/LesterThomas/presentation-generator/internal/logging"
	"github.com/LesterThomas/presentation-generator/internal/pipeline"
	"github.com/LesterThomas/presentation-generator/internal/render"
	"github.com/LesterThomas/presentation-generator/internal/tts"
	"github.com/LesterThomas/presentation-generator/internal/video"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   = flag.String("config", config.DefaultConfigFile, "path to the TOML configuration file")
		ttsPath      = flag.String("tts", "", "path to the speech-synthesis executable (overrides config)")
		ffmpegPath   = flag.String("ffmpeg", "", "path to the ffmpeg executable (overrides config)")
		width        = flag.Int("width", 0, "exported image width in pixels (overrides config)")
		videoFlag    = flag.Bool("video", true, "assemble per-slide clips and the final deck video")
		handoutFlag  = flag.Bool("handout", false, "assemble a PDF handout from the slide images")
		logLevel     = flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
		printVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <presentation.pptx>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *printVersion {
		fmt.Println(Version)
		return 0
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}
	inputPath := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Flags take precedence over config and environment.
	if *ttsPath != "" {
		cfg.TTS.Path = *ttsPath
	}
	if *ffmpegPath != "" {
		cfg.Video.FFmpegPath = *ffmpegPath
	}
	if *width > 0 {
		cfg.Render.Width = *width
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	videoEnabled := cfg.Video.IsEnabled()
	handoutEnabled := cfg.Handout.Enabled
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "video":
			videoEnabled = *videoFlag
		case "handout":
			handoutEnabled = *handoutFlag
		}
	})

	log, closer, err := logging.Setup(logging.Level(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closer.Close()

	renderOpts := render.DefaultOptions()
	renderOpts.Width = cfg.Render.Width
	renderOpts.FontDirs = cfg.Render.FontDirs

	synth := tts.NewCommandSynthesizer(cfg.TTS.Path)
	synth.Timeout = cfg.TTS.TimeoutDuration()

	p := &pipeline.Pipeline{
		Open:  pipeline.NewOpener(renderOpts),
		Synth: synth,
		Log:   log,
	}
	if videoEnabled {
		builder := video.NewBuilder(cfg.Video.FFmpegPath)
		builder.FPS = cfg.Video.FPS
		builder.Codec = cfg.Video.Codec
		builder.AudioCodec = cfg.Video.AudioCodec
		builder.Preset = cfg.Video.Preset
		builder.Bitrate = cfg.Video.Bitrate
		p.Clips = builder
	}
	if handoutEnabled {
		p.Handout = handout.Build
	}

	log.Info("processing presentation", "path", inputPath, "version", Version)
	summary, err := p.Run(context.Background(), inputPath)
	if err != nil {
		log.Error("failed to process presentation", "error", err)
		return 1
	}
	if n := summary.ErrorCount(); n > 0 {
		log.Error("run finished with errors", "errors", n)
		return 1
	}
	log.Info("successfully processed presentation", "output", summary.OutputDir)
	return 0
}
