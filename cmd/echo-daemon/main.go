package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	"echo/internal/assistant"
	"echo/internal/audio"
	"echo/internal/bus"
	"echo/internal/config"
	"echo/internal/dispatch"
	"echo/internal/intent"
	"echo/internal/ipc"
	"echo/internal/notify"
	"echo/internal/proxy"
	"echo/internal/system"
	"echo/internal/tts"
	"echo/internal/web"
	"echo/internal/worker"
	"echo/pkg/capture"
	"echo/pkg/protocol"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "", "Config file path (YAML)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address, empty for direct")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	busAddr := cli.StringP("bus", "b", "", "Event bus listen address, overrides config")
	socket := cli.StringP("socket", "s", "", "Control socket path, overrides config")
	replay := cli.StringSliceP("replay", "r", nil, "Audio files to use instead of the microphone")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file", "path", *envFile, "err", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *busAddr != "" {
		cfg.Bus = *busAddr
	}
	if *socket != "" {
		cfg.Socket = *socket
	}

	httpClient, err := proxy.NewClient(*proxyAddr)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, err := newCompleter(ctx, cfg.AI, httpClient)
	if err != nil {
		log.Error("Failed to init AI backend", "engine", cfg.AI.Engine, "err", err)
		os.Exit(1)
	}
	if completer == nil {
		log.Warn("No AI key set, chat fallback disabled")
	}
	chat := newChat(cfg, completer)

	browser := web.Browser{}
	dispatcher := dispatch.New(dispatch.Config{
		Media:        web.NewYouTube(httpClient, browser, ""),
		Encyclopedia: web.NewWikipedia(httpClient, ""),
		Answers:      web.NewDuckDuckGo(httpClient, ""),
		Browser:      browser,
		Launcher:     system.Launcher{},
		Processes:    system.Processes{},
		Volume:       system.NewVolume(),
		Brightness:   system.NewBrightness(),
		Chat:         chat,
		Apps:         cfg.Apps,
	})

	log.Debug("Loaded dispatcher", "apps", len(cfg.Apps))

	player := audio.NewPlayer()

	synth, closeSynth, err := newSynthesizer(ctx, cfg.TTS)
	if err != nil {
		log.Warn("Speech output unavailable", "engine", cfg.TTS.Engine, "err", err)
	}
	defer closeSynth()

	// bus and session refer to each other
	var session *assistant.Session
	events := bus.New(func(e protocol.Event) {
		go session.Handle(ctx, e)
	}, func() []protocol.Event {
		return session.Greeting()
	})

	speakerOpts := tts.Options{
		Synthesizer:  synth,
		Player:       ttsPlayer{player},
		Voice:        tts.Voice{Name: cfg.TTS.Voice, Rate: cfg.TTS.Rate},
		PollInterval: cfg.TTS.PollInterval,
		DuckFactor:   cfg.TTS.DuckFactor,
		Status: func(text string) {
			events.Publish(protocol.Status(text))
		},
	}
	if cfg.TTS.Duck {
		speakerOpts.Ducker = system.NewDucker([]string{"echo-daemon", "espeak-ng"}, 5)
	}
	speaker := tts.New(speakerOpts)
	go speaker.Run(ctx)

	transcriber, closeTranscriber, err := newTranscriber(ctx, cfg.STT)
	if err != nil {
		log.Error("Failed to init speech recognition", "engine", cfg.STT.Engine, "err", err)
		os.Exit(1)
	}
	defer closeTranscriber()

	log.Debug("Loaded transcriber", "engine", cfg.STT.Engine)

	var mic capture.Microphone
	if len(*replay) > 0 {
		mic = capture.NewReplay(*replay...)
		log.Info("Replaying audio instead of the microphone", "files", len(*replay))
	} else {
		mic = audio.NewRecorder(cfg.Recorder)
	}

	chime := notify.NewChime(player, cfg.Chime)
	if chime == nil {
		log.Debug("No chime file", "path", cfg.Chime)
	}

	session = assistant.New(assistant.Config{
		Worker: worker.Config{
			Microphone:  mic,
			Transcriber: transcriber,
			Dispatcher:  dispatcher,
			Classifier:  intent.NewClassifier(cfg.Intents),
			Timings:     cfg.Worker,
			OnReady: func() {
				if err := chime.Ring(); err != nil {
					log.Warn("Failed to ring chime", "err", err)
				}
			},
		},
		Speaker:  speaker,
		Chat:     chat,
		Sink:     events.Publish,
		StopWait: cfg.Worker.StopWait,
	})

	ctl, err := ipc.Listen(cfg.Socket, controlHandler(session))
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "bus", cfg.Bus, "socket", cfg.Socket)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return events.ListenAndServe(gctx, cfg.Bus) })
	g.Go(func() error { return ctl.Serve(gctx) })

	err = g.Wait()
	if err := session.Stop(); err == nil {
		log.Info("Voice recognition stopped")
	}
	speaker.Interrupt()
	if err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

// ttsPlayer narrows audio.Player to what the speaker needs.
type ttsPlayer struct{ *audio.Player }

func (p ttsPlayer) Play(path string) (tts.Playback, error) {
	pb, err := p.Player.Play(path)
	if err != nil {
		return nil, err
	}
	return pb, nil
}
