package catalog

// Register table of the QUINT4 24V DC UPS. The 0x7400 block comes from
// the official Modbus documentation, the rest from the XML tables in
// the vendor driver package:
//
//	0x0000 vendor
//	0x1000 configuration
//	0x3000 parametrization
//	0x6C00 status data
//	0x7400 I/O data
//	0x7800 control registers
var quint24dcDefs = []Def{
	{
		Name: "OUT_LX_Remote",
		Addr: 0x7400,
		Kind: Bool,
		ValueMap: map[uint64]string{
			0: "on",
			1: "off",
		},
	},
	{
		Name: "OUT_LX_BatteryMode",
		Addr: 0x7401,
		Kind: Bool,
	},
	{
		Name: "OUT_LX_ShutdownEvent",
		Addr: 0x7402,
		Kind: Bool,
	},
	{
		Name: "OUT_LX_BatteryCharging",
		Addr: 0x7403,
		Kind: Bool,
	},
	{
		Name: "OUT_LUI_PowerSourceBoost",
		Addr: 0x7406,
		Kind: State,
		ValueMap: map[uint64]string{
			0: "I > Inominal",
			1: "I < Inominal",
			2: "not connected",
		},
	},
	{
		Name: "OUT_LUI_OutputVoltage",
		Addr: 0x7431,
		Kind: Int,
		Unit: "mV",
		Max:  30000,
	},
	{
		Name: "OUT_LUI_SocStateOfCharge",
		Addr: 0x7435,
		Kind: Int,
		Unit: "%",
		ValueMap: map[uint64]string{
			65535: "not initialized",
		},
	},
	{
		Name: "OUT_LUI_SocStateResidualBackupTime",
		Addr: 0x7436,
		Kind: Int,
		Unit: "minutes",
		ValueMap: map[uint64]string{
			65535: "not initialized",
		},
	},
	{
		Name: "OUT_LUI_BatteryVoltage",
		Addr: 0x7460,
		Kind: Int,
		Unit: "mV",
		Max:  30000,
	},
	{
		Name: "OUT_LUI_BatteryTemperature",
		Addr: 0x7461,
		Kind: Int,
		Unit: "Kelvin",
		Min:  200,
		Max:  400,
	},
	{
		Name: "OUT_LUI_OutputVoltage2",
		Addr: 0x7462,
		Kind: Int,
		Unit: "mV",
		Max:  3000,
	},
	{
		Name: "OUT_LUI_SocStateResidualBackupTimeS",
		Addr: 0x7463,
		Kind: Int,
		Unit: "seconds",
		ValueMap: map[uint64]string{
			65535: "not initialized",
		},
	},
	{
		Name: "OUT_LUDI_BatteryNormCapacityWs",
		Addr: 0x7464,
		Kind: Int,
		Unit: "100Ws",
		ValueMap: map[uint64]string{
			65535: "not detected",
		},
	},
	{
		Name: "OUT_LUI_BatteryDischaCurrent",
		Addr: 0x7466,
		Kind: Int,
		Unit: "mA",
	},
	{
		Name: "OUT_LUI_BatteryDetectedUnits",
		Addr: 0x7467,
		Kind: Int,
		Max:  15,
	},
	{
		Name: "OUT_LUDI_BatteryNormCapacitymAh",
		Addr: 0x7468,
		Kind: Int,
		Unit: "100mAh",
		ValueMap: map[uint64]string{
			65535: "not detected",
		},
	},
	{
		Name:     "OUT_LUI_BatteryInstalledType",
		Addr:     0x7469,
		Kind:     State,
		Classify: classifyBatteryType,
	},
	{
		Name:   "OUT_LUDW_ActualAlarm",
		Addr:   0x7490,
		Length: 2,
		Kind:   Bits,
		Bits: []BitLabel{
			{0, "end of life (SOH)"},
			{4, "end of life (Resistance)"},
			{5, "end of life (Resistance)"},
			{6, "end of life (Time)"},
			{7, "end of life (Voltage)"},
			{9, "no battery"},
			{10, "inconsistent technology"},
			{11, "overload cutoff"},
			{12, "low battery (Voltage)"},
			{13, "low battery (Charge)"},
			{14, "low battery (Time)"},
			{16, "service"},
		},
	},
	{
		Name: "OUT_LUDW_ActualWarning",
		Addr: 0x7494,
		Kind: Bits,
		Bits: []BitLabel{
			{0, "end of life (SOH)"},
			{7, "inconsistent capacity"},
			// The vendor docs list bit 8 twice ("notify more
			// batteries" and "less batteries"); only the latter is
			// kept, duplicates fail catalog validation.
			{8, "less batteries"},
			{12, "low battery (Voltage)"},
			{13, "low battery (Charge)"},
			{14, "low battery (Time)"},
			{15, "service without battery registration"},
		},
	},

	// 0x1000

	{
		Name: "FW_VERSION",
		Addr: 0x1602,
		Kind: Raw,
	},
	{
		Name: "BAT_INSTALLED_CAPACITY_NOMINAL",
		Addr: 0x1611,
		Kind: Raw,
		Unit: "100mAh",
	},

	// 0x3000

	{
		Name:        "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME",
		Addr:        0x3203,
		Kind:        Raw,
		Access:      ReadWrite,
		Description: "seconds after power loss until output voltage is turned off (in custom mode only)",
	},

	// 0x6000

	{
		Name:   "COUNTER_BATTERY_MODE_EVENT",
		Addr:   0x6C00,
		Length: 2,
		Kind:   Raw,
	},
	{
		Name:   "COUNTER_OPERATION_TIME",
		Addr:   0x6C0C,
		Length: 2,
		Kind:   Raw,
	},
	{
		Name:   "COUNTER_USER_OPERATION_TIME",
		Addr:   0x6C10,
		Length: 2,
		Kind:   Raw,
	},

	// 0x7400

	{
		Name: "STATUS_SERVICE",
		Addr: 0x7405,
		Kind: State,
		ValueMap: map[uint64]string{
			0: "not in service mode",
			1: "service mode by key",
			2: "service mode by stick",
			3: "service mode by PC",
		},
	},
	{
		Name: "INPUT_ACTUAL_VOLTAGE",
		Addr: 0x7430,
		Kind: Int,
		Unit: "mV",
	},
	{
		Name: "ACTUAL_CURRENT_CHARGING",
		Addr: 0x7465,
		Kind: Int,
		Unit: "mA",
	},
	{
		Name: "BATTERY_ACTUAL_TEMPERATURE",
		Addr: 0x7473,
		Kind: Int,
		Unit: "Kelvin",
	},
	{
		Name: "BATTERY_ACTUAL_ALL_VOLTAGE",
		Addr: 0x7472,
		Kind: Int,
		Unit: "mV",
	},
	{
		Name: "BATTERY_ACTUAL_INTERNAL_VOLTAGE",
		Addr: 0x7477,
		Kind: Int,
		Unit: "mV",
	},
	{
		Name: "ERROR_CODE_COUNTER",
		Addr: 0x749A,
		Kind: Raw,
	},

	// 0x7800

	{
		Name: "SET_SERVICE_MODE_BY_PC",
		Addr: 0x7873,
		Kind: Raw,
	},
}

// classifyBatteryType derives the battery chemistry from the nominal
// capacity code. Thresholds are checked in descending order.
func classifyBatteryType(v uint64) string {
	switch {
	case v > 18000:
		return "Capacitor"
	case v > 11000:
		return "Lithium battery"
	case v > 1000:
		return "Lead battery"
	default:
		return "unknown"
	}
}

var quint24dc = func() *Catalog {
	c, err := New(quint24dcDefs)
	if err != nil {
		panic(err)
	}
	return c
}()

// Quint24DC returns the catalog for the QUINT4 24V DC UPS.
func Quint24DC() *Catalog { return quint24dc }

// MonitorRanges is the monitored register surface: status data, I/O
// data and control registers.
func MonitorRanges() []Range {
	return []Range{
		{0x6C00, 0x6C50},
		{0x7400, 0x74A0},
		{0x7800, 0x78A0},
	}
}

// DefaultSkip returns the addresses excluded from change reporting by
// default: counters and live voltage/current/temperature telemetry
// that change on nearly every cycle.
func DefaultSkip() []uint16 {
	names := []string{
		"COUNTER_OPERATION_TIME",
		"COUNTER_USER_OPERATION_TIME",
		"INPUT_ACTUAL_VOLTAGE",
		"BATTERY_ACTUAL_INTERNAL_VOLTAGE",
		"OUT_LUI_OutputVoltage",
	}

	// Undocumented addresses; most look like live current, voltage or
	// temperature readings.
	addrs := []uint16{
		0x740B,
		0x740C,
		0x740D,
		0x7432,
		0x743C,
		0x743D,
		0x746C,
		0x7478,
	}

	out := make([]uint16, 0, len(names)+len(addrs))
	for _, n := range names {
		d, ok := quint24dc.ByName(n)
		if !ok {
			panic("catalog: unknown default skip register " + n)
		}
		out = append(out, d.Addr)
	}
	return append(out, addrs...)
}
