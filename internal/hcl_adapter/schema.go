package hcl_adapter

// fileRoot is a struct used to decode all possible top-level blocks of a
// macro. Every block is optional; pointer fields stay nil when the
// attribute is absent so that defaults survive. Unknown blocks and
// attributes are decode errors.
type fileRoot struct {
	Gun      *gunBlock      `hcl:"gun,block"`
	Spectrum *spectrumBlock `hcl:"spectrum,block"`
	Geometry *geometryBlock `hcl:"geometry,block"`
	Output   *outputBlock   `hcl:"output,block"`
	Detector *detectorBlock `hcl:"detector,block"`
	Monitor  *monitorBlock  `hcl:"monitor,block"`
	Runs     []*runBlock    `hcl:"run,block"`
}

type gunBlock struct {
	Particle  *string   `hcl:"particle,optional"`
	Position  []float64 `hcl:"position,optional"`
	Direction []float64 `hcl:"direction,optional"`
}

type spectrumBlock struct {
	Path *string `hcl:"path,optional"`
}

type geometryBlock struct {
	Path     *string  `hcl:"path,optional"`
	RunLog   *string  `hcl:"run_log,optional"`
	MaxSteps *int     `hcl:"max_steps,optional"`
	CutKeV   *float64 `hcl:"cut_kev,optional"`
}

type outputBlock struct {
	HitLog         *string  `hcl:"hit_log,optional"`
	Histogram      *string  `hcl:"histogram,optional"`
	HistogramMin   *float64 `hcl:"histogram_min,optional"`
	HistogramMax   *float64 `hcl:"histogram_max,optional"`
	HistogramWidth *float64 `hcl:"histogram_width,optional"`
	UploadURL      *string  `hcl:"upload_url,optional"`
	UploadTimeout  *string  `hcl:"upload_timeout,optional"`
}

type detectorBlock struct {
	Cells       *int `hcl:"cells,optional"`
	Verbose     *int `hcl:"verbose,optional"`
	DebugGammas *int `hcl:"debug_gammas,optional"`
}

type monitorBlock struct {
	Port *int `hcl:"port,optional"`
}

type runBlock struct {
	Name          string `hcl:"name,label"`
	Events        *int   `hcl:"events,optional"`
	Seed          *int64 `hcl:"seed,optional"`
	Workers       *int   `hcl:"workers,optional"`
	PrintProgress *int   `hcl:"print_progress,optional"`
}
