package itc

// Aux (gas flow) descriptors. Valve gearing and sensitivity settings are
// cached; the stepper signals never are.
var (
	descFlowMin   = descriptor{token: "GMIN", kind: KindFloat, direction: ReadWrite, cacheable: true}
	descFlowScale = descriptor{token: "GFSF", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 99}}
	descTempErr   = descriptor{token: "TES", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 20}}
	descVoltErr   = descriptor{token: "TVES", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 20}}
	descGearing   = descriptor{token: "GEAR", kind: KindInt, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 7}}
	descSpeed     = descriptor{token: "SPD", kind: KindInt, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 2}}

	descAuxStep    = descriptor{token: "SIG:STEP", kind: KindSignal, direction: ReadOnly}
	descAuxPercent = descriptor{token: "SIG:PERC", kind: KindSignal, direction: ReadOnly}
	descAuxInput   = descriptor{token: "SIG:IN", kind: KindSignal, direction: ReadOnly}
)

func auxTable() map[string]descriptor {
	ds := append(identityDescriptors(),
		descFlowMin, descFlowScale, descTempErr, descVoltErr,
		descGearing, descSpeed,
		descAuxStep, descAuxPercent, descAuxInput,
	)
	return buildTable(ds...)
}

// Aux is an auxiliary gas flow (needle valve stepper) module.
type Aux struct {
	moduleBase
}

func newAux(address, uid string, driver *Driver) *Aux {
	return &Aux{moduleBase: newModuleBase(address, uid, ClassAux, driver, auxTable())}
}

// FlowMin reads the minimum gas flow in percent (cached).
func (a *Aux) FlowMin() (float64, error) {
	return a.readFloat(descFlowMin)
}

// SetFlowMin sets the minimum gas flow. The value must be strictly
// greater than 1 percent.
func (a *Aux) SetFlowMin(percent float64) error {
	if percent <= 1 {
		return newValidationError(descFlowMin.token, percent, "must be greater than 1")
	}
	return a.writeRaw(descFlowMin, renderFloat(percent))
}

// WriteAttribute routes the gas-flow minimum through its typed setter so
// the exclusive lower bound applies to generic writes too.
func (a *Aux) WriteAttribute(token, value string) error {
	if token == descFlowMin.token {
		v, err := parseWriteFloat(token, value)
		if err != nil {
			return err
		}
		return a.SetFlowMin(v)
	}
	return a.attrs.WriteAttribute(token, value)
}

// FlowScale reads the gas flow scaling factor (cached).
func (a *Aux) FlowScale() (float64, error) {
	return a.readFloat(descFlowScale)
}

// SetFlowScale sets the gas flow scaling factor, 0 to 99.
func (a *Aux) SetFlowScale(v float64) error {
	return a.writeFloat(descFlowScale, v)
}

// TempErrorSensitivity reads the temperature error sensitivity (cached).
func (a *Aux) TempErrorSensitivity() (float64, error) {
	return a.readFloat(descTempErr)
}

// SetTempErrorSensitivity sets the temperature error sensitivity, 0 to 20.
func (a *Aux) SetTempErrorSensitivity(v float64) error {
	return a.writeFloat(descTempErr, v)
}

// VoltErrorSensitivity reads the temperature voltage error sensitivity
// (cached).
func (a *Aux) VoltErrorSensitivity() (float64, error) {
	return a.readFloat(descVoltErr)
}

// SetVoltErrorSensitivity sets the temperature voltage error
// sensitivity, 0 to 20.
func (a *Aux) SetVoltErrorSensitivity(v float64) error {
	return a.writeFloat(descVoltErr, v)
}

// Gearing reads the valve gearing setting (cached).
func (a *Aux) Gearing() (int, error) {
	return a.readInt(descGearing)
}

// SetGearing sets the valve gearing, 0 to 7.
func (a *Aux) SetGearing(v int) error {
	return a.writeInt(descGearing, v)
}

// StepperSpeed reads the valve stepper speed setting (cached).
func (a *Aux) StepperSpeed() (int, error) {
	return a.readInt(descSpeed)
}

// SetStepperSpeed sets the stepper speed: 0, 1 or 2.
func (a *Aux) SetStepperSpeed(v int) error {
	return a.writeInt(descSpeed, v)
}

// StepperPosition reads the live valve stepper position. Never cached.
func (a *Aux) StepperPosition() (Reading, error) {
	return a.readScaled(descAuxStep)
}

// PercentOpen reads the live valve opening in percent. Never cached.
func (a *Aux) PercentOpen() (Reading, error) {
	return a.readScaled(descAuxPercent)
}

// InputState reads the live auxiliary input signal. Never cached.
func (a *Aux) InputState() (Reading, error) {
	return a.readScaled(descAuxInput)
}
