package dispatch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"

	"echo/internal/web"
)

var (
	mediaWords     = []string{"song", "music", "on youtube", "youtube"}
	knowledgeWords = []string{"tell me about", "who is", "what is", "explain"}
	knownSites     = []string{"google", "youtube", "facebook", "twitter"}
)

const maxAnswerLen = 200

func (d *Dispatcher) buildRules() []rule {
	return []rule{
		{
			name: "media",
			match: func(cmd string) bool {
				return strings.Contains(cmd, "play") && containsAny(cmd, mediaWords...)
			},
			handle: d.media,
		},
		{
			name:   "time",
			match:  func(cmd string) bool { return strings.Contains(cmd, "time") },
			handle: d.timeOfDay,
		},
		{
			name:   "date",
			match:  func(cmd string) bool { return containsAny(cmd, "date", "day") },
			handle: d.date,
		},
		{
			name:   "knowledge",
			match:  func(cmd string) bool { return containsAny(cmd, knowledgeWords...) },
			handle: d.knowledge,
		},
		{
			name:   "open",
			match:  func(cmd string) bool { return strings.Contains(cmd, "open") },
			handle: d.open,
		},
		{
			name:   "close",
			match:  func(cmd string) bool { return strings.Contains(cmd, "close") },
			handle: d.close,
		},
		{
			name:   "search",
			match:  func(cmd string) bool { return containsAny(cmd, "search", "look up") },
			handle: d.search,
		},
		{
			name:  "volume",
			match: func(cmd string) bool { return strings.Contains(cmd, "volume") },
			handle: func(ctx context.Context, cmd string) string {
				return d.level(ctx, cmd, levelRule{noun: "volume", title: "Volume", up: 75, down: 25, setter: d.cfg.Volume})
			},
		},
		{
			name:  "brightness",
			match: func(cmd string) bool { return strings.Contains(cmd, "brightness") },
			handle: func(ctx context.Context, cmd string) string {
				return d.level(ctx, cmd, levelRule{noun: "brightness", title: "Brightness", up: 80, down: 30, setter: d.cfg.Brightness})
			},
		},
		{
			name:   "weather",
			match:  func(cmd string) bool { return strings.Contains(cmd, "weather") },
			handle: d.weather,
		},
	}
}

func (d *Dispatcher) media(ctx context.Context, cmd string) string {
	song := strip(cmd, append([]string{"play"}, mediaWords...)...)
	if song == "" {
		return "What would you like me to play?"
	}

	if d.cfg.Media == nil {
		return fmt.Sprintf("Sorry, I couldn't play %s", song)
	}
	if err := d.cfg.Media.Play(ctx, song); err != nil {
		log.Warn("Media playback failed", "song", song, "err", err)
		return fmt.Sprintf("Sorry, I couldn't play %s", song)
	}
	return fmt.Sprintf("Playing %s on YouTube", song)
}

func (d *Dispatcher) timeOfDay(_ context.Context, _ string) string {
	return fmt.Sprintf("The current time is %s", d.cfg.Now().Format("03:04 PM"))
}

func (d *Dispatcher) date(_ context.Context, _ string) string {
	return fmt.Sprintf("Today is %s", d.cfg.Now().Format("Monday, January 02, 2006"))
}

func (d *Dispatcher) knowledge(ctx context.Context, cmd string) string {
	subject := strip(cmd, knowledgeWords...)
	if subject == "" {
		return "What would you like to know about?"
	}
	if d.cfg.Encyclopedia == nil {
		return apology(fmt.Errorf("encyclopedia %w", errUnavailable))
	}

	info, err := d.cfg.Encyclopedia.Summary(ctx, subject)
	switch {
	case errors.Is(err, web.ErrDisambiguation):
		return fmt.Sprintf("There are multiple results for %s. Can you be more specific?", subject)
	case errors.Is(err, web.ErrNotFound):
		return fmt.Sprintf("I couldn't find information about %s", subject)
	case err != nil:
		return apology(err)
	}
	return info
}

func (d *Dispatcher) open(ctx context.Context, cmd string) string {
	target := strip(cmd, "open")
	if target == "" {
		return "What would you like me to open?"
	}

	if path, ok := d.cfg.Apps[target]; ok {
		if d.cfg.Launcher == nil {
			return fmt.Sprintf("I couldn't open %s", target)
		}
		if err := d.cfg.Launcher.Launch(ctx, path); err != nil {
			log.Warn("Launch failed", "app", target, "err", err)
			return fmt.Sprintf("I couldn't open %s", target)
		}
		return fmt.Sprintf("Opening %s", target)
	}

	if strings.Contains(target, ".") || containsAny(target, knownSites...) {
		u := target
		if !strings.HasPrefix(u, "http") {
			if strings.Contains(u, ".") {
				u = "https://" + u
			} else {
				u = "https://www." + u + ".com"
			}
		}
		if err := d.browse(ctx, u); err != nil {
			return fmt.Sprintf("I couldn't open %s", u)
		}
		return fmt.Sprintf("Opening %s in browser", u)
	}

	if err := d.browse(ctx, web.SearchURL(target)); err != nil {
		return fmt.Sprintf("I couldn't open %s", target)
	}
	return fmt.Sprintf("Searching for %s", target)
}

func (d *Dispatcher) close(ctx context.Context, cmd string) string {
	app := strip(cmd, "close")
	if app == "" {
		return "What would you like me to close?"
	}
	if d.cfg.Processes == nil {
		return apology(fmt.Errorf("process control %w", errUnavailable))
	}

	closed, err := d.cfg.Processes.Terminate(ctx, app)
	if err != nil {
		return apology(err)
	}
	if !closed {
		return fmt.Sprintf("I couldn't find %s to close", app)
	}
	return fmt.Sprintf("Closed %s", app)
}

func (d *Dispatcher) search(ctx context.Context, cmd string) string {
	query := strip(cmd, "search", "look up")
	if query == "" {
		return "What would you like me to search for?"
	}

	var answer string
	if d.cfg.Answers != nil {
		var err error
		answer, err = d.cfg.Answers.Query(ctx, query)
		if err != nil {
			log.Warn("Instant answer failed", "query", query, "err", err)
			answer = ""
		}
	}

	if answer != "" {
		return truncate(answer, maxAnswerLen)
	}

	if err := d.browse(ctx, web.SearchURL(query)); err != nil {
		return apology(err)
	}
	return fmt.Sprintf("I couldn't find a quick answer, so I opened a search for %s", query)
}

type levelRule struct {
	noun     string
	title    string
	up, down int
	setter   Leveler
}

func (d *Dispatcher) level(ctx context.Context, cmd string, r levelRule) string {
	switch {
	case containsAny(cmd, "set "+r.noun, r.noun+" to"):
		for _, word := range strings.Fields(cmd) {
			n, ok := parseLevel(word)
			if !ok {
				continue
			}
			if n < 0 || n > 100 {
				return fmt.Sprintf("%s must be between 0 and 100", r.title)
			}
			if err := d.setLevel(ctx, r.setter, n); err != nil {
				return fmt.Sprintf("I couldn't change the %s", r.noun)
			}
			return fmt.Sprintf("%s set to %d%%", r.title, n)
		}

	case containsAny(cmd, "increase "+r.noun, r.noun+" up"):
		if err := d.setLevel(ctx, r.setter, r.up); err != nil {
			return fmt.Sprintf("I couldn't increase the %s", r.noun)
		}
		return fmt.Sprintf("%s increased", r.title)

	case containsAny(cmd, "decrease "+r.noun, r.noun+" down"):
		if err := d.setLevel(ctx, r.setter, r.down); err != nil {
			return fmt.Sprintf("I couldn't decrease the %s", r.noun)
		}
		return fmt.Sprintf("%s decreased", r.title)
	}

	return fmt.Sprintf("Please specify a %s level between 0 and 100", r.noun)
}

func (d *Dispatcher) setLevel(ctx context.Context, setter Leveler, n int) error {
	if setter == nil {
		return errUnavailable
	}
	if err := setter.SetLevel(ctx, float64(n)/100); err != nil {
		log.Warn("Set level failed", "level", n, "err", err)
		return err
	}
	return nil
}

func (d *Dispatcher) weather(ctx context.Context, cmd string) string {
	location := "current location"
	if strings.Contains(cmd, " in ") {
		parts := strings.Split(cmd, " in ")
		if loc := strings.TrimSpace(parts[len(parts)-1]); loc != "" {
			location = loc
		}
	}

	if err := d.browse(ctx, web.SearchURL("weather "+location)); err != nil {
		return apology(err)
	}
	return fmt.Sprintf("Opening weather information for %s", location)
}

func (d *Dispatcher) browse(ctx context.Context, u string) error {
	if d.cfg.Browser == nil {
		return fmt.Errorf("browser %w", errUnavailable)
	}
	if err := d.cfg.Browser.Open(ctx, u); err != nil {
		log.Warn("Browser open failed", "url", u, "err", err)
		return err
	}
	return nil
}

// parseLevel accepts a run of digits with an optional trailing percent sign.
// Digit runs too large for an int report 101 so they fail the range check.
func parseLevel(word string) (int, bool) {
	w := strings.TrimSuffix(word, "%")
	if w == "" {
		return 0, false
	}
	for _, r := range w {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 101, true
	}
	return n, true
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
