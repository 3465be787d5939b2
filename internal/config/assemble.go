package config

import (
	"fmt"
	"strings"

	"layoutgen/internal/pipeline"
	"layoutgen/pkg/contract"
	"layoutgen/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("%w: input not set (use a path or \"-\" for STDIN)", contract.ErrConfigInvalid)
	}
	switch lv := strings.ToLower(strings.TrimSpace(cfg.Logging.Level)); lv {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", contract.ErrConfigInvalid, cfg.Logging.Level)
	}
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return notRegistered("reader", name, registry.Names(registry.Reader))
	}
	if name := effName(cfg.Components.Segmenter, d.Segmenter); registry.Segmenter[name] == nil {
		return notRegistered("segmenter", name, registry.Names(registry.Segmenter))
	}
	if name := effName(cfg.Components.Emitter, d.Emitter); registry.Emitter[name] == nil {
		return notRegistered("emitter", name, registry.Names(registry.Emitter))
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return notRegistered("writer", name, registry.Names(registry.Writer))
	}
	return nil
}

func notRegistered(kind, name string, known []string) error {
	return fmt.Errorf("%w: %s %q not registered (known: %s)", contract.ErrConfigInvalid, kind, name, strings.Join(known, ", "))
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults().Components
	en := effName(cfg.Components.Emitter, d.Emitter)

	r, err := registry.Reader[effName(cfg.Components.Reader, d.Reader)](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader: %w", err)
	}
	s, err := registry.Segmenter[effName(cfg.Components.Segmenter, d.Segmenter)](cfg.Options.Segmenter)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("segmenter: %w", err)
	}
	e, err := registry.Emitter[en](cfg.Options.Emitter[en])
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("emitter %s: %w", en, err)
	}
	w, err := registry.Writer[effName(cfg.Components.Writer, d.Writer)](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer: %w", err)
	}

	comp := pipeline.Components{Reader: r, Segmenter: s, Emitter: e, Writer: w}
	set := pipeline.Settings{Input: strings.TrimSpace(cfg.Input), Strict: cfg.StrictValue()}
	return comp, set, nil
}

func effName(got, def string) string {
	if s := strings.TrimSpace(got); s != "" {
		return s
	}
	return def
}
