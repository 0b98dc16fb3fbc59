package ui_config

type Config struct { //nolint:maligned
	PollIntervalMs int `hcl:"poll_interval_ms"`
	DebounceMs     int `hcl:"debounce_ms"`
	RepeatDelayMs  int `hcl:"repeat_delay_ms"`
	RepeatRateMs   int `hcl:"repeat_rate_ms"`

	Root         string        `hcl:"root"`
	Menus        []Menu        `hcl:"menu"`
	Sliders      []Slider      `hcl:"slider"`
	FloatSliders []FloatSlider `hcl:"float_slider"`
	Toggles      []Toggle      `hcl:"toggle"`

	About struct {
		Text string `hcl:"text"`
	} `hcl:"about"`
}

// Menu kind is "main" or "sub".
// Back: "self" permanent root, "" dismissible main or parent name for sub.
type Menu struct {
	Name  string `hcl:"name,key"`
	Kind  string `hcl:"kind"`
	Back  string `hcl:"back"`
	Items []Item `hcl:"item"`
}

// Item has exactly one of Command, Toggle, Submenu.
type Item struct {
	Label   string `hcl:"label,key"`
	Command string `hcl:"command"`
	Toggle  string `hcl:"toggle"`
	Submenu string `hcl:"submenu"`
}

type Slider struct {
	Name    string `hcl:"name,key"`
	Label   string `hcl:"label"`
	Min     int    `hcl:"min"`
	Max     int    `hcl:"max"`
	Step    int    `hcl:"step"`
	Address int    `hcl:"address"`
	Default int    `hcl:"default"`
	Apply   string `hcl:"apply"`
}

type FloatSlider struct {
	Name    string  `hcl:"name,key"`
	Label   string  `hcl:"label"`
	Min     float64 `hcl:"min"`
	Max     float64 `hcl:"max"`
	Step    float64 `hcl:"step"`
	Digits  int     `hcl:"digits"`
	Address int     `hcl:"address"`
	Default float64 `hcl:"default"`
	Apply   string  `hcl:"apply"`
}

// Toggle cycles States, index is stored as byte at Address.
type Toggle struct {
	Name    string   `hcl:"name,key"`
	Address int      `hcl:"address"`
	States  []string `hcl:"states"`
}
