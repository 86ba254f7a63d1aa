package itc

// Temperature sensor descriptors. Sensor configuration and calibration
// settings are cached; measured signals and the loop setpoints that the
// instrument itself moves (ramping, flow auto) are live.
var (
	descSensorType = descriptor{token: "TYPE", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"PTC", "NTC", "DDE", "TCE"}}
	descExcType    = descriptor{token: "EXCT:TYPE", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"UNIP", "BIP", "SOFT"}}
	descExcMag     = descriptor{token: "EXCT:MAG", kind: KindFloat, direction: ReadWrite, cacheable: true}

	descCalFile   = descriptor{token: "CAL:FILE", kind: KindString, direction: ReadWrite, cacheable: true}
	descCalInterp = descriptor{token: "CAL:INT", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"LIN", "SPL", "LAGR"}}
	descCalScale  = descriptor{token: "CAL:SCAL", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0.5, Max: 1.5}}
	descCalOffset = descriptor{token: "CAL:OFFS", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: -100, Max: 100}}
	descCalHotL   = descriptor{token: "CAL:HOTL", kind: KindSignal, direction: ReadOnly, cacheable: true}
	descCalColdL  = descriptor{token: "CAL:COLDL", kind: KindSignal, direction: ReadOnly, cacheable: true}

	descTmpVoltage  = descriptor{token: "SIG:VOLT", kind: KindSignal, direction: ReadOnly}
	descTmpResist   = descriptor{token: "SIG:RES", kind: KindSignal, direction: ReadOnly}
	descTmpTemp     = descriptor{token: "SIG:TEMP", kind: KindSignal, direction: ReadOnly}
	descTmpSlope    = descriptor{token: "SIG:SLOP", kind: KindSignal, direction: ReadOnly}

	descLoopHeater   = descriptor{token: "LOOP:HTR", kind: KindString, direction: ReadWrite, cacheable: true}
	descLoopAux      = descriptor{token: "LOOP:AUX", kind: KindString, direction: ReadWrite, cacheable: true}
	descLoopP        = descriptor{token: "LOOP:P", kind: KindFloat, direction: ReadWrite, cacheable: true}
	descLoopI        = descriptor{token: "LOOP:I", kind: KindFloat, direction: ReadWrite, cacheable: true}
	descLoopD        = descriptor{token: "LOOP:D", kind: KindFloat, direction: ReadWrite, cacheable: true}
	descLoopPIDTable = descriptor{token: "LOOP:PIDT", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"ON", "OFF"}}
	descLoopEnabled  = descriptor{token: "LOOP:ENAB", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"ON", "OFF"}}
	descLoopFlowAuto = descriptor{token: "LOOP:FAUT", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"ON", "OFF"}}
	descLoopRampEna  = descriptor{token: "LOOP:RENA", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"ON", "OFF"}}
	descLoopSetpoint = descriptor{token: "LOOP:TSET", kind: KindSignal, direction: ReadWrite}
	descLoopFlowSet  = descriptor{token: "LOOP:FSET", kind: KindFloat, direction: ReadWrite, bounds: &Range{Min: 0, Max: 100}}
	descLoopHtrSet   = descriptor{token: "LOOP:HSET", kind: KindFloat, direction: ReadWrite, bounds: &Range{Min: 0, Max: 100}}
	descLoopRampRate = descriptor{token: "LOOP:RSET", kind: KindSignal, direction: ReadWrite, cacheable: true}
)

func tempSensorTable() map[string]descriptor {
	ds := append(identityDescriptors(),
		descSensorType, descExcType, descExcMag,
		descCalFile, descCalInterp, descCalScale, descCalOffset,
		descCalHotL, descCalColdL,
		descTmpVoltage, descTmpResist, descTmpTemp, descTmpSlope,
		descLoopHeater, descLoopAux,
		descLoopP, descLoopI, descLoopD,
		descLoopPIDTable, descLoopEnabled, descLoopFlowAuto, descLoopRampEna,
		descLoopSetpoint, descLoopFlowSet, descLoopHtrSet, descLoopRampRate,
	)
	return buildTable(ds...)
}

// TempSensor is a temperature sensor module, including the control loop
// the instrument runs against it.
type TempSensor struct {
	moduleBase
}

func newTempSensor(address, uid string, driver *Driver) *TempSensor {
	return &TempSensor{moduleBase: newModuleBase(address, uid, ClassTemperature, driver, tempSensorTable())}
}

// SensorType reads the sensor type: PTC, NTC, DDE or TCE (cached).
func (t *TempSensor) SensorType() (string, error) {
	return t.readString(descSensorType)
}

// SetSensorType sets the sensor type to PTC, NTC, DDE or TCE.
func (t *TempSensor) SetSensorType(v string) error {
	return t.writeEnum(descSensorType, v)
}

// ExcitationType reads the excitation mode: UNIP, BIP or SOFT (cached).
func (t *TempSensor) ExcitationType() (string, error) {
	return t.readString(descExcType)
}

// SetExcitationType sets the excitation mode to UNIP, BIP or SOFT.
func (t *TempSensor) SetExcitationType(v string) error {
	return t.writeEnum(descExcType, v)
}

// ExcitationMagnitude reads the excitation magnitude (cached).
func (t *TempSensor) ExcitationMagnitude() (float64, error) {
	return t.readFloat(descExcMag)
}

// SetExcitationMagnitude sets the excitation magnitude.
func (t *TempSensor) SetExcitationMagnitude(v float64) error {
	return t.writeFloat(descExcMag, v)
}

// CalibrationFile reads the calibration file name (cached).
func (t *TempSensor) CalibrationFile() (string, error) {
	return t.readString(descCalFile)
}

// SetCalibrationFile selects a calibration file by name.
func (t *TempSensor) SetCalibrationFile(name string) error {
	return t.writeString(descCalFile, name)
}

// CalibrationInterpolation reads the interpolation method: LIN, SPL or
// LAGR (cached).
func (t *TempSensor) CalibrationInterpolation() (string, error) {
	return t.readString(descCalInterp)
}

// SetCalibrationInterpolation sets the interpolation method to LIN, SPL
// or LAGR.
func (t *TempSensor) SetCalibrationInterpolation(v string) error {
	return t.writeEnum(descCalInterp, v)
}

// CalibrationScale reads the calibration scale factor (cached).
func (t *TempSensor) CalibrationScale() (float64, error) {
	return t.readFloat(descCalScale)
}

// SetCalibrationScale sets the calibration scale factor, 0.5 to 1.5.
func (t *TempSensor) SetCalibrationScale(v float64) error {
	return t.writeFloat(descCalScale, v)
}

// CalibrationOffset reads the calibration offset (cached).
func (t *TempSensor) CalibrationOffset() (float64, error) {
	return t.readFloat(descCalOffset)
}

// SetCalibrationOffset sets the calibration offset, -100 to 100.
func (t *TempSensor) SetCalibrationOffset(v float64) error {
	return t.writeFloat(descCalOffset, v)
}

// CalibrationHotLimit reads the calibration's hot limit (cached).
func (t *TempSensor) CalibrationHotLimit() (Reading, error) {
	return t.readScaled(descCalHotL)
}

// CalibrationColdLimit reads the calibration's cold limit (cached).
func (t *TempSensor) CalibrationColdLimit() (Reading, error) {
	return t.readScaled(descCalColdL)
}

// Voltage reads the live sensor voltage. Never cached.
func (t *TempSensor) Voltage() (Reading, error) {
	return t.readScaled(descTmpVoltage)
}

// Resistance reads the live sensor resistance. Never cached.
func (t *TempSensor) Resistance() (Reading, error) {
	return t.readScaled(descTmpResist)
}

// Temperature reads the live temperature. Never cached.
func (t *TempSensor) Temperature() (Reading, error) {
	return t.readScaled(descTmpTemp)
}

// Slope reads the live temperature slope. Never cached.
func (t *TempSensor) Slope() (Reading, error) {
	return t.readScaled(descTmpSlope)
}

// WriteAttribute routes the loop associations and the instrument-moved
// setpoints through their typed setters so the dynamic nickname sets and
// the non-negative bounds apply to generic writes too.
func (t *TempSensor) WriteAttribute(token, value string) error {
	switch token {
	case descLoopHeater.token:
		return t.SetLoopHeater(value)
	case descLoopAux.token:
		return t.SetLoopAux(value)
	case descLoopSetpoint.token:
		v, err := parseWriteFloat(token, value)
		if err != nil {
			return err
		}
		return t.SetSetpoint(v)
	case descLoopRampRate.token:
		v, err := parseWriteFloat(token, value)
		if err != nil {
			return err
		}
		return t.SetRampRate(v)
	}
	return t.attrs.WriteAttribute(token, value)
}

// LoopHeater reads the nickname of the heater driven by this sensor's
// control loop, or "None" (cached).
func (t *TempSensor) LoopHeater() (string, error) {
	return t.readString(descLoopHeater)
}

// SetLoopHeater associates the loop with a heater by nickname. The
// allowed set is computed live from the discovered heater modules plus
// "None", so a renamed heater is accepted under its current nickname.
func (t *TempSensor) SetLoopHeater(nick string) error {
	allowed, err := t.driver.heaterNicks()
	if err != nil {
		return err
	}
	if err := validateAllowed(descLoopHeater.token, nick, allowed); err != nil {
		return err
	}
	return t.writeString(descLoopHeater, nick)
}

// LoopAux reads the nickname of the aux module driven by this sensor's
// control loop, or "None" (cached).
func (t *TempSensor) LoopAux() (string, error) {
	return t.readString(descLoopAux)
}

// SetLoopAux associates the loop with an aux module by nickname. The
// allowed set is computed live from the discovered aux modules plus
// "None".
func (t *TempSensor) SetLoopAux(nick string) error {
	allowed, err := t.driver.auxNicks()
	if err != nil {
		return err
	}
	if err := validateAllowed(descLoopAux.token, nick, allowed); err != nil {
		return err
	}
	return t.writeString(descLoopAux, nick)
}

// LoopP reads the loop's proportional gain (cached).
func (t *TempSensor) LoopP() (float64, error) {
	return t.readFloat(descLoopP)
}

// SetLoopP sets the loop's proportional gain.
func (t *TempSensor) SetLoopP(v float64) error {
	return t.writeFloat(descLoopP, v)
}

// LoopI reads the loop's integral time (cached).
func (t *TempSensor) LoopI() (float64, error) {
	return t.readFloat(descLoopI)
}

// SetLoopI sets the loop's integral time.
func (t *TempSensor) SetLoopI(v float64) error {
	return t.writeFloat(descLoopI, v)
}

// LoopD reads the loop's derivative time (cached).
func (t *TempSensor) LoopD() (float64, error) {
	return t.readFloat(descLoopD)
}

// SetLoopD sets the loop's derivative time.
func (t *TempSensor) SetLoopD(v float64) error {
	return t.writeFloat(descLoopD, v)
}

// PIDTableEnabled reads whether the loop takes its PID terms from the
// calibration table, ON or OFF (cached).
func (t *TempSensor) PIDTableEnabled() (string, error) {
	return t.readString(descLoopPIDTable)
}

// SetPIDTableEnabled sets PID-from-table to ON or OFF.
func (t *TempSensor) SetPIDTableEnabled(v string) error {
	return t.writeEnum(descLoopPIDTable, v)
}

// LoopEnabled reads whether the control loop is running, ON or OFF
// (cached).
func (t *TempSensor) LoopEnabled() (string, error) {
	return t.readString(descLoopEnabled)
}

// SetLoopEnabled turns the control loop ON or OFF.
func (t *TempSensor) SetLoopEnabled(v string) error {
	return t.writeEnum(descLoopEnabled, v)
}

// FlowAuto reads whether gas flow is under automatic loop control, ON
// or OFF (cached).
func (t *TempSensor) FlowAuto() (string, error) {
	return t.readString(descLoopFlowAuto)
}

// SetFlowAuto sets automatic gas flow control to ON or OFF.
func (t *TempSensor) SetFlowAuto(v string) error {
	return t.writeEnum(descLoopFlowAuto, v)
}

// RampEnabled reads whether setpoint ramping is active, ON or OFF
// (cached).
func (t *TempSensor) RampEnabled() (string, error) {
	return t.readString(descLoopRampEna)
}

// SetRampEnabled sets setpoint ramping to ON or OFF.
func (t *TempSensor) SetRampEnabled(v string) error {
	return t.writeEnum(descLoopRampEna, v)
}

// Setpoint reads the loop's temperature setpoint. Never cached — while
// ramping, the working setpoint moves on its own.
func (t *TempSensor) Setpoint() (Reading, error) {
	return t.readScaled(descLoopSetpoint)
}

// SetSetpoint sets the loop's temperature setpoint in kelvin.
func (t *TempSensor) SetSetpoint(kelvin float64) error {
	if kelvin < 0 {
		return newValidationError(descLoopSetpoint.token, kelvin, "must not be negative")
	}
	return t.writeRaw(descLoopSetpoint, renderFloat(kelvin))
}

// FlowSetting reads the loop's manual gas flow setting in percent. Never
// cached — under automatic control the instrument moves it.
func (t *TempSensor) FlowSetting() (float64, error) {
	return t.readFloat(descLoopFlowSet)
}

// SetFlowSetting sets the manual gas flow, 0 to 100 percent.
func (t *TempSensor) SetFlowSetting(percent float64) error {
	return t.writeFloat(descLoopFlowSet, percent)
}

// HeaterSetting reads the loop's manual heater output in percent. Never
// cached — while the loop runs, the instrument moves it.
func (t *TempSensor) HeaterSetting() (float64, error) {
	return t.readFloat(descLoopHtrSet)
}

// SetHeaterSetting sets the manual heater output, 0 to 100 percent.
func (t *TempSensor) SetHeaterSetting(percent float64) error {
	return t.writeFloat(descLoopHtrSet, percent)
}

// RampRate reads the setpoint ramp rate (cached). An unlimited rate is
// returned as {+Inf, "K/m"}.
func (t *TempSensor) RampRate() (Reading, error) {
	return t.readScaled(descLoopRampRate)
}

// SetRampRate sets the setpoint ramp rate in kelvin per minute.
func (t *TempSensor) SetRampRate(kelvinPerMin float64) error {
	if kelvinPerMin < 0 {
		return newValidationError(descLoopRampRate.token, kelvinPerMin, "must not be negative")
	}
	return t.writeRaw(descLoopRampRate, renderFloat(kelvinPerMin))
}
