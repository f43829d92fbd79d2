package flourish

import (
	"errors"
	"fmt"
	"os"

	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// Layout is a declarative page: sections stacked top to bottom, each holding
// a grid of cards with optional reveal, tilt, hover and float effects.
// Layouts are usually loaded from YAML with LoadLayout.
type Layout struct {
	Width      float64       `yaml:"width"`
	Background string        `yaml:"background"`
	Gap        float64       `yaml:"gap"`
	Sections   []SectionSpec `yaml:"sections"`
}

// SectionSpec describes one page section.
type SectionSpec struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	// Height of the section. Zero fits the card grid.
	Height  float64 `yaml:"height"`
	Padding float64 `yaml:"padding"`
	Columns int     `yaml:"columns"`
	Gap     float64 `yaml:"gap"`
	// Margin is CSS margin shorthand applied to the section's trigger, e.g. "-100px".
	Margin string `yaml:"margin"`
	// Repeat lets the section's trigger toggle instead of latching.
	Repeat bool        `yaml:"repeat"`
	Amount float64     `yaml:"amount"`
	Reveal *RevealSpec `yaml:"reveal"`
	Cards  []CardSpec  `yaml:"cards"`
}

// RevealSpec configures the staggered reveal of a section's cards.
type RevealSpec struct {
	Duration      float32      `yaml:"duration"`
	DelayChildren float32      `yaml:"delay_children"`
	Stagger       *float32     `yaml:"stagger"`
	Ease          string       `yaml:"ease"`
	Hidden        *VariantSpec `yaml:"hidden"`
}

// VariantSpec is the YAML form of a Variant.
type VariantSpec struct {
	Alpha   float64 `yaml:"alpha"`
	OffsetY float64 `yaml:"offset_y"`
	Scale   float64 `yaml:"scale"`
	TiltX   float64 `yaml:"tilt_x"`
}

// CardSpec describes one card in a section grid.
type CardSpec struct {
	Name   string     `yaml:"name"`
	Width  float64    `yaml:"width"`
	Height float64    `yaml:"height"`
	Color  string     `yaml:"color"`
	Tilt   *TiltSpec  `yaml:"tilt"`
	Hover  *HoverSpec `yaml:"hover"`
	Float  *FloatSpec `yaml:"float"`
}

// TiltSpec is the YAML form of a TiltConfig.
type TiltSpec struct {
	MaxAngle  float64 `yaml:"max_angle"`
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Mass      float64 `yaml:"mass"`
}

// HoverSpec is the YAML form of a HoverConfig.
type HoverSpec struct {
	Lift      float64 `yaml:"lift"`
	Scale     float64 `yaml:"scale"`
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
}

// FloatSpec makes a card bob up and down forever.
type FloatSpec struct {
	Amplitude float64 `yaml:"amplitude"`
	Period    float32 `yaml:"period"`
	Ease      string  `yaml:"ease"`
}

// Layout defaults.
const (
	DefaultLayoutWidth = 1280.0
	DefaultStagger     = 0.1
)

// ErrEmptyLayout is returned for a layout with no sections.
var ErrEmptyLayout = errors.New("layout: no sections")

// LoadLayout reads and validates a YAML layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: load %s: %w", path, err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("layout: unmarshal: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks names, sizes, colors, margins and easings.
func (l *Layout) Validate() error {
	if len(l.Sections) == 0 {
		return ErrEmptyLayout
	}
	if l.Width < 0 {
		return fmt.Errorf("layout: negative width %g", l.Width)
	}
	if l.Background != "" {
		if _, err := ParseColor(l.Background); err != nil {
			return fmt.Errorf("layout: background: %w", err)
		}
	}
	seen := make(map[string]bool)
	for i := range l.Sections {
		sec := &l.Sections[i]
		if sec.Name == "" {
			return fmt.Errorf("layout: section %d: missing name", i)
		}
		if seen[sec.Name] {
			return fmt.Errorf("layout: duplicate name %q", sec.Name)
		}
		seen[sec.Name] = true
		if err := sec.validate(seen); err != nil {
			return fmt.Errorf("layout: section %q: %w", sec.Name, err)
		}
	}
	return nil
}

func (sec *SectionSpec) validate(seen map[string]bool) error {
	if sec.Height < 0 || sec.Padding < 0 || sec.Gap < 0 || sec.Columns < 0 {
		return errors.New("negative size")
	}
	if sec.Amount < 0 || sec.Amount > 1 {
		return fmt.Errorf("amount %g outside [0, 1]", sec.Amount)
	}
	if sec.Color != "" {
		if _, err := ParseColor(sec.Color); err != nil {
			return err
		}
	}
	if _, err := ParseMargin(sec.Margin); err != nil {
		return err
	}
	if sec.Reveal != nil && sec.Reveal.Ease != "" {
		if _, err := ParseEase(sec.Reveal.Ease); err != nil {
			return err
		}
	}
	for j, c := range sec.Cards {
		if c.Name == "" {
			return fmt.Errorf("card %d: missing name", j)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate name %q", c.Name)
		}
		seen[c.Name] = true
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("card %q: size must be positive", c.Name)
		}
		if c.Color != "" {
			if _, err := ParseColor(c.Color); err != nil {
				return fmt.Errorf("card %q: %w", c.Name, err)
			}
		}
		if c.Float != nil && c.Float.Ease != "" {
			if _, err := ParseEase(c.Float.Ease); err != nil {
				return fmt.Errorf("card %q: %w", c.Name, err)
			}
		}
	}
	return nil
}

// Page is a mounted Layout. Unmount releases every trigger, listener and
// loop it created.
type Page struct {
	scene     *Scene
	Root      *Node
	Sections  []*Section
	height    float64
	unmounted bool
}

// Section is a mounted SectionSpec.
type Section struct {
	Node    *Node
	Trigger *InViewTrigger
	Reveal  *RevealGroup
	Cards   []*Card
}

// Card is a mounted CardSpec.
type Card struct {
	Node  *Node
	Tilt  *TiltTracker
	Hover *HoverEffect
	Float *FloatLoop
}

// Build mounts the layout under scene's root. Sections are stacked from y=0
// with Gap between them; cards are laid out in a grid inside each section.
func (l *Layout) Build(scene *Scene) (*Page, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	width := l.Width
	if width == 0 {
		width = DefaultLayoutWidth
	}
	if l.Background != "" {
		scene.ClearColor, _ = ParseColor(l.Background)
	}

	p := &Page{scene: scene, Root: NewContainer("page")}
	p.Root.Width = width
	scene.Root().AddChild(p.Root)

	y := 0.0
	for i := range l.Sections {
		spec := &l.Sections[i]
		node := buildSectionNode(spec, width)
		node.Y = y
		p.Root.AddChild(node)
		y += node.Height + l.Gap
		p.Sections = append(p.Sections, &Section{Node: node})
	}
	p.height = max(0, y-l.Gap)
	p.Root.Height = p.height
	refreshTransforms(p.Root)

	// Effects are attached only once every section is positioned so that
	// triggers see final bounds on their first evaluation.
	for i, sec := range p.Sections {
		if err := p.mountSection(sec, &l.Sections[i]); err != nil {
			p.Unmount()
			return nil, fmt.Errorf("layout: section %q: %w", l.Sections[i].Name, err)
		}
	}
	return p, nil
}

func buildSectionNode(spec *SectionSpec, width float64) *Node {
	cols := spec.Columns
	if cols <= 0 {
		cols = max(1, len(spec.Cards))
	}
	var node *Node
	if spec.Color != "" {
		c, _ := ParseColor(spec.Color)
		node = NewBox(spec.Name, width, 0, c)
	} else {
		node = NewContainer(spec.Name)
		node.Width = width
	}

	rowY := spec.Padding
	rowH := 0.0
	for j, cs := range spec.Cards {
		col := j % cols
		if col == 0 && j > 0 {
			rowY += rowH + spec.Gap
			rowH = 0
		}
		x := spec.Padding
		for k := j - col; k < j; k++ {
			x += spec.Cards[k].Width + spec.Gap
		}
		c := ColorWhite
		if cs.Color != "" {
			c, _ = ParseColor(cs.Color)
		}
		card := NewCard(cs.Name, cs.Width, cs.Height, c)
		card.X, card.Y = x, rowY
		node.AddChild(card)
		rowH = max(rowH, cs.Height)
	}

	node.Height = spec.Height
	if node.Height == 0 {
		node.Height = rowY + rowH + spec.Padding
	}
	return node
}

func (p *Page) mountSection(sec *Section, spec *SectionSpec) error {
	margin, err := ParseMargin(spec.Margin)
	if err != nil {
		return err
	}
	if spec.Reveal != nil {
		cfg, err := spec.Reveal.config()
		if err != nil {
			return err
		}
		cfg.Margin = margin
		cfg.Repeat = spec.Repeat
		cfg.Amount = spec.Amount
		sec.Reveal = p.scene.UseReveal(sec.Node, cfg)
		sec.Trigger = sec.Reveal.Trigger()
	} else {
		sec.Trigger = p.scene.UseInView(sec.Node, InViewOptions{Margin: margin, Once: !spec.Repeat, Amount: spec.Amount})
	}

	for j, cs := range spec.Cards {
		card := &Card{Node: sec.Node.ChildAt(j)}
		if cs.Tilt != nil {
			card.Tilt = p.scene.UseTilt(card.Node, TiltConfig{
				MaxAngle: cs.Tilt.MaxAngle,
				Spring:   SpringConfig{Stiffness: cs.Tilt.Stiffness, Damping: cs.Tilt.Damping, Mass: cs.Tilt.Mass},
			})
		}
		if cs.Hover != nil {
			card.Hover = p.scene.UseHover(card.Node, HoverConfig{
				Lift:   cs.Hover.Lift,
				Scale:  cs.Hover.Scale,
				Spring: SpringConfig{Stiffness: cs.Hover.Stiffness, Damping: cs.Hover.Damping},
			})
		}
		if cs.Float != nil {
			fn, err := parseOptionalEase(cs.Float.Ease)
			if err != nil {
				return err
			}
			period := cs.Float.Period
			if period <= 0 {
				period = 3
			}
			card.Float = NewFloatLoop(card.Node, &card.Node.FloatY, cs.Float.Amplitude, period, fn)
			p.scene.AddTween(card.Float)
		}
		sec.Cards = append(sec.Cards, card)
	}
	return nil
}

func (r *RevealSpec) config() (RevealConfig, error) {
	fn, err := parseOptionalEase(r.Ease)
	if err != nil {
		return RevealConfig{}, err
	}
	cfg := RevealConfig{
		Duration:        r.Duration,
		DelayChildren:   r.DelayChildren,
		StaggerChildren: DefaultStagger,
		Ease:            fn,
	}
	if r.Stagger != nil {
		cfg.StaggerChildren = *r.Stagger
	}
	if r.Hidden != nil {
		cfg.Hidden = Variant{Alpha: r.Hidden.Alpha, OffsetY: r.Hidden.OffsetY, Scale: r.Hidden.Scale, TiltX: r.Hidden.TiltX}
		if cfg.Hidden.Scale == 0 {
			cfg.Hidden.Scale = 1
		}
	}
	return cfg, nil
}

func parseOptionalEase(name string) (ease.TweenFunc, error) {
	if name == "" {
		return nil, nil
	}
	return ParseEase(name)
}

// Height returns the total page height.
func (p *Page) Height() float64 {
	return p.height
}

// Bounds returns the page rectangle, suitable for Camera.SetBounds.
func (p *Page) Bounds() Rect {
	return Rect{Width: p.Root.Width, Height: p.height}
}

// Section returns the mounted section with the given name, or nil.
func (p *Page) Section(name string) *Section {
	for _, s := range p.Sections {
		if s.Node.Name == name {
			return s
		}
	}
	return nil
}

// Card returns the mounted card with the given name, or nil.
func (p *Page) Card(name string) *Card {
	for _, s := range p.Sections {
		for _, c := range s.Cards {
			if c.Node.Name == name {
				return c
			}
		}
	}
	return nil
}

// Unmount releases every effect the page created and disposes its nodes.
// Safe to call more than once.
func (p *Page) Unmount() {
	if p.unmounted {
		return
	}
	p.unmounted = true
	for _, sec := range p.Sections {
		for _, c := range sec.Cards {
			if c.Tilt != nil {
				c.Tilt.Detach()
			}
			if c.Hover != nil {
				c.Hover.Detach()
			}
			if c.Float != nil {
				c.Float.Stop()
			}
		}
		if sec.Reveal != nil {
			sec.Reveal.Close()
		}
		if sec.Trigger != nil {
			sec.Trigger.Close()
		}
	}
	p.Root.Dispose()
}
