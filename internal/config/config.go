package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Intent is one row of the classifier table. Rows are scanned in order.
type Intent struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

type Worker struct {
	Calibration   time.Duration `yaml:"calibration"`
	ListenTimeout time.Duration `yaml:"listen_timeout"`
	PhraseLimit   time.Duration `yaml:"phrase_limit"`
	PausePoll     time.Duration `yaml:"pause_poll"`
	StopWait      time.Duration `yaml:"stop_wait"`
}

type Recorder struct {
	SampleRate      int           `yaml:"sample_rate"`
	FrameSize       int           `yaml:"frame_size"`
	EnergyThreshold float64       `yaml:"energy_threshold"` // int16 RMS scale
	DynamicEnergy   bool          `yaml:"dynamic_energy"`
	PauseThreshold  time.Duration `yaml:"pause_threshold"`
	PhraseThreshold time.Duration `yaml:"phrase_threshold"`
}

type STT struct {
	Engine       string `yaml:"engine"` // "google" | "whisper"
	Language     string `yaml:"language"`
	WhisperModel string `yaml:"whisper_model"`
}

type TTS struct {
	Engine       string        `yaml:"engine"` // "google" | "espeak" | "none"
	Voice        string        `yaml:"voice"`
	Rate         float64       `yaml:"rate"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Duck         bool          `yaml:"duck"`
	DuckFactor   float64       `yaml:"duck_factor"`
}

type AI struct {
	Engine       string        `yaml:"engine"` // "gemini" | "openai"
	Model        string        `yaml:"model"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Config struct {
	Name        string            `yaml:"name"`
	MemoryLimit int               `yaml:"memory_limit"`
	Apps        map[string]string `yaml:"apps"`
	Intents     []Intent          `yaml:"intents"`
	Chime       string            `yaml:"chime"`
	Bus         string            `yaml:"bus"`
	Socket      string            `yaml:"socket"`

	Worker   Worker   `yaml:"worker"`
	Recorder Recorder `yaml:"recorder"`
	STT      STT      `yaml:"stt"`
	TTS      TTS      `yaml:"tts"`
	AI       AI       `yaml:"ai"`
}

const DefaultSystemPrompt = `You are an advanced, context-aware AI assistant named Echo, designed to deliver precise, insightful, and efficient responses. Your primary goal is to provide clear, intelligent, and engaging answers while maintaining brevity and relevance. Follow these principles:
- Adapt to Context & Mood: Align your tone with the user's mood and the nature of the conversation, whether casual, professional, or highly technical.
- Be Concise, Yet Complete: Deliver well-structured responses that are neither too short nor unnecessarily verbose.
- No Redundancy: Avoid repeating information or your name ("Echo") unless necessary for clarity or emphasis.
- Ask Smart Questions: If a query lacks clarity, request precise details with a brief, targeted question.
- Ensure Logical Flow: Keep responses interconnected, ensuring a seamless and engaging dialogue.
- Encourage Exploration: When relevant, subtly suggest related ideas or next steps.
- Prioritize Accuracy & Relevance: Always provide well-reasoned, factual, and contextually appropriate responses.
Avoid starting responses with "Echo" or self-referential phrases unless explicitly asked about your identity.`

func Default() Config {
	return Config{
		Name:        "Echo",
		MemoryLimit: 5,
		Apps:        defaultApps(),
		Intents: []Intent{
			{Tag: "media_control", Keywords: []string{"play", "music", "song", "youtube"}},
			{Tag: "time_date", Keywords: []string{"time", "date", "day", "today"}},
			{Tag: "information", Keywords: []string{"tell me about", "who is", "what is", "explain", "search", "look up"}},
			{Tag: "system_control", Keywords: []string{"open", "close", "volume", "brightness"}},
			{Tag: "weather", Keywords: []string{"weather", "temperature", "forecast"}},
			{Tag: "ai_chat", Keywords: []string{"general conversation"}},
		},
		Chime:  "beep.mp3",
		Bus:    "127.0.0.1:8092",
		Socket: "/tmp/echo.sock",

		Worker: Worker{
			Calibration:   time.Second,
			ListenTimeout: time.Second,
			PhraseLimit:   8 * time.Second,
			PausePoll:     100 * time.Millisecond,
			StopWait:      3 * time.Second,
		},
		Recorder: Recorder{
			SampleRate:      16000,
			FrameSize:       320, // 20ms
			EnergyThreshold: 300,
			DynamicEnergy:   true,
			PauseThreshold:  800 * time.Millisecond,
			PhraseThreshold: 300 * time.Millisecond,
		},
		STT: STT{
			Engine:       "google",
			Language:     "en-US",
			WhisperModel: "third_party/whisper.cpp/models/ggml-base.en.bin",
		},
		TTS: TTS{
			Engine:       "google",
			Voice:        "en-US-Neural2-F",
			Rate:         1.15,
			PollInterval: 100 * time.Millisecond,
			Duck:         false,
			DuckFactor:   0.3,
		},
		AI: AI{
			Engine:       "gemini",
			Model:        "gemini-2.0-flash",
			SystemPrompt: DefaultSystemPrompt,
			Timeout:      60 * time.Second,
		},
	}
}

func defaultApps() map[string]string {
	switch runtime.GOOS {
	case "windows":
		return map[string]string{
			"notepad":    "notepad.exe",
			"calculator": "calc.exe",
			"chrome":     "chrome.exe",
			"firefox":    "firefox.exe",
		}
	case "darwin":
		return map[string]string{
			"notepad":    "/System/Applications/TextEdit.app/Contents/MacOS/TextEdit",
			"calculator": "/System/Applications/Calculator.app/Contents/MacOS/Calculator",
			"chrome":     "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"firefox":    "/Applications/Firefox.app/Contents/MacOS/firefox",
		}
	default:
		return map[string]string{
			"notepad":    "gedit",
			"calculator": "gnome-calculator",
			"chrome":     "google-chrome",
			"firefox":    "firefox",
		}
	}
}

// Load overlays the YAML file at path on Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns every problem found, joined.
func Validate(cfg Config) error {
	var errs []error

	if cfg.MemoryLimit < 1 {
		errs = append(errs, fmt.Errorf("memory_limit must be positive, got %d", cfg.MemoryLimit))
	}
	if len(cfg.Intents) == 0 {
		errs = append(errs, errors.New("intents must not be empty"))
	}
	for i, in := range cfg.Intents {
		if in.Tag == "" {
			errs = append(errs, fmt.Errorf("intents[%d]: empty tag", i))
		}
	}
	if cfg.Worker.ListenTimeout <= 0 || cfg.Worker.PhraseLimit <= 0 || cfg.Worker.PausePoll <= 0 {
		errs = append(errs, errors.New("worker timings must be positive"))
	}
	if cfg.TTS.PollInterval <= 0 {
		errs = append(errs, errors.New("tts.poll_interval must be positive"))
	}

	switch cfg.STT.Engine {
	case "google", "whisper":
	default:
		errs = append(errs, fmt.Errorf("stt.engine %q is invalid; valid values: google, whisper", cfg.STT.Engine))
	}
	switch cfg.TTS.Engine {
	case "google", "espeak", "none":
	default:
		errs = append(errs, fmt.Errorf("tts.engine %q is invalid; valid values: google, espeak, none", cfg.TTS.Engine))
	}
	switch cfg.AI.Engine {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.engine %q is invalid; valid values: gemini, openai", cfg.AI.Engine))
	}

	return errors.Join(errs...)
}
