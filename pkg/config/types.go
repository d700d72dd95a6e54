package config

// Control is a user-exposed stage input: its current value, its real-world
// bounds, a display name, and a flag marking it as a free variable for
// optimization or sweeping.
type Control struct {
	Value       float64 `yaml:"value"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	Description string  `yaml:"description"`
	IsControl   bool    `yaml:"is_control"`
}

// NamedControl pairs a control with the stage parameter name it binds to.
type NamedControl struct {
	Name    string
	Control Control
}

// FeedstockOptions holds the feedstock composition controls.
type FeedstockOptions struct {
	XylanSolidFraction  Control `yaml:"xylan_solid_fraction"`
	GlucanSolidFraction Control `yaml:"glucan_solid_fraction"`
	InitialPorosity     Control `yaml:"initial_porosity"`
}

// Controls returns the feedstock controls in declaration order.
func (o FeedstockOptions) Controls() []NamedControl {
	return []NamedControl{
		{Name: "xylan_solid_fraction", Control: o.XylanSolidFraction},
		{Name: "glucan_solid_fraction", Control: o.GlucanSolidFraction},
		{Name: "initial_porosity", Control: o.InitialPorosity},
	}
}

// PretreatmentOptions holds the dilute-acid pretreatment controls.
// SteamTemperature is in degrees Celsius and FinalTime in minutes; the
// stage model converts to its internal units.
type PretreatmentOptions struct {
	InitialAcidConc      Control `yaml:"initial_acid_conc"`
	SteamTemperature     Control `yaml:"steam_temperature"`
	InitialSolidFraction Control `yaml:"initial_solid_fraction"`
	FinalTime            Control `yaml:"final_time"`
	ShowPlots            bool    `yaml:"show_plots"`
}

// Controls returns the pretreatment controls in declaration order.
func (o PretreatmentOptions) Controls() []NamedControl {
	return []NamedControl{
		{Name: "initial_acid_conc", Control: o.InitialAcidConc},
		{Name: "steam_temperature", Control: o.SteamTemperature},
		{Name: "initial_solid_fraction", Control: o.InitialSolidFraction},
		{Name: "final_time", Control: o.FinalTime},
	}
}

// EnzymaticOptions holds the enzymatic hydrolysis controls. LambdaE is in
// mg/g and FinalTime in hours. CaseDir locates the CFD case for the
// cfd-simulation kind.
type EnzymaticOptions struct {
	ModelKind string  `yaml:"model_kind"`
	CaseDir   string  `yaml:"case_dir"`
	LambdaE   Control `yaml:"lambda_e"`
	FIS0      Control `yaml:"fis_0"`
	FinalTime Control `yaml:"t_final"`
	ShowPlots bool    `yaml:"show_plots"`
}

// Controls returns the enzymatic hydrolysis controls in declaration order.
func (o EnzymaticOptions) Controls() []NamedControl {
	return []NamedControl{
		{Name: "lambda_e", Control: o.LambdaE},
		{Name: "fis_0", Control: o.FIS0},
		{Name: "t_final", Control: o.FinalTime},
	}
}

// BioreactorOptions holds the aerobic bioreaction controls. Bioreactor
// controls are never exposed to the optimizer, so there is no Controls
// accessor.
type BioreactorOptions struct {
	ModelKind      string  `yaml:"model_kind"`
	CaseDir        string  `yaml:"case_dir"`
	GasVelocity    Control `yaml:"gas_velocity"`
	ColumnHeight   Control `yaml:"column_height"`
	ColumnDiameter Control `yaml:"column_diameter"`
	BubbleDiameter Control `yaml:"bubble_diameter"`
	FinalTime      Control `yaml:"t_final"`
}

// Objective selects which persisted output value the search optimizes.
type Objective struct {
	// Output is one of pretreatment_output, enzymatic_output, bioreactor_output.
	Output string `yaml:"output"`
	// Name is the key within that output section, e.g. rho_g.
	Name string `yaml:"name"`
}

// Optimization configures the bound-constrained minimizer.
type Optimization struct {
	// Method is one of nelder-mead (default), bfgs, cg.
	Method        string `yaml:"method"`
	ResultsFile   string `yaml:"results_file"`
	MaxIterations int    `yaml:"max_iterations"`
}

// Sweep configures the full-factorial grid sweep.
type Sweep struct {
	// Points is the number of grid points per control variable.
	Points      int    `yaml:"points"`
	ResultsFile string `yaml:"results_file"`
}

// Case is the top-level driver configuration for one session.
type Case struct {
	LogLevel     string               `yaml:"log_level"`
	ParamsFile   string               `yaml:"params_file"`
	HPCRun       bool                 `yaml:"hpc_run"`
	Objective    Objective            `yaml:"objective"`
	Feedstock    FeedstockOptions     `yaml:"feedstock"`
	Pretreatment PretreatmentOptions  `yaml:"pretreatment"`
	Enzymatic    EnzymaticOptions     `yaml:"enzymatic_hydrolysis"`
	Bioreactor   BioreactorOptions    `yaml:"bioreactor"`
	Optimization *Optimization        `yaml:"optimization,omitempty"`
	Sweep        *Sweep               `yaml:"sweep,omitempty"`
}
